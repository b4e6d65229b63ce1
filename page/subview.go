package page

// SubviewItem is one entry of a subview list: an ordered (index,
// page id) pair the subpage_view button type scrolls through
// (spec.md §3 "SubviewList... ordered item sequence of (index,
// page_id)").
type SubviewItem struct {
	Index  int
	PageID int
}

// SubviewList is a named, ordered sequence of page references loaded
// once from project metadata and cached (spec.md §3 "PageList /
// SubpageList / SubviewList: loaded once from project metadata").
type SubviewList struct {
	ID    int
	Items []SubviewItem
}

// ItemAt returns the page id at position index, or false if index is
// out of range (used when a subpage_view button's navigation command
// advances past the list, spec.md §4.6 "Subview lists").
func (l *SubviewList) ItemAt(index int) (pageID int, ok bool) {
	if index < 0 || index >= len(l.Items) {
		return 0, false
	}
	return l.Items[index].PageID, true
}
