package slice

// Result is one slice of T. It never carries a total count.
type Result[T any] struct {
	Content []T  `json:"content"`
	Size    int  `json:"size"`
	HasNext bool `json:"has_next"`
	// NextCursor is nil exactly when HasNext is false.
	NextCursor *string `json:"next_cursor"`
}

// Assemble turns over-fetched rows into a slice result: it trims the probe
// row and derives the next cursor from the last row actually returned.
func Assemble[T any](rows []T, size int, key func(T) Key) Result[T] {
	if size <= 0 {
		size = 0
	}
	hasNext := len(rows) > size
	n := len(rows)
	if hasNext {
		n = size
	}
	content := make([]T, n)
	copy(content, rows[:n])

	res := Result[T]{Content: content, Size: size, HasNext: hasNext}
	if hasNext && n > 0 {
		cur := EncodeCursor(key(content[n-1]))
		res.NextCursor = &cur
	} else {
		res.HasNext = false
	}
	return res
}

// Empty is a result with no rows.
func Empty[T any](size int) Result[T] {
	return Result[T]{Content: []T{}, Size: size}
}

// Cursor returns the next cursor or "" when this is the last slice.
func (r Result[T]) Cursor() string {
	if r.NextCursor == nil {
		return ""
	}
	return *r.NextCursor
}

// MapResult converts content while keeping slice metadata.
func MapResult[T, U any](r Result[T], fn func(T) U) Result[U] {
	out := Result[U]{Content: make([]U, len(r.Content)), Size: r.Size, HasNext: r.HasNext, NextCursor: r.NextCursor}
	for i, v := range r.Content {
		out.Content[i] = fn(v)
	}
	return out
}
