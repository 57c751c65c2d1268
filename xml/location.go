package xml

// Location pinpoints a position in the byte stream that produced an Event.
// Column is derived rather than stored, per spec: Offset - LineStart.
type Location struct {
	Line       int   // 1-based line number
	LineStart  int64 // absolute byte offset where Line began
	Offset     int64 // absolute byte offset of the event
}

// Column returns the 0-based byte column within Line.
func (l Location) Column() int64 {
	return l.Offset - l.LineStart
}
