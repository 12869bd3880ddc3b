package slice

// Limits holds the size policy applied when a PageRequest is built.
// It comes from configuration so each deployment can tune it.
type Limits struct {
	DefaultSize int `mapstructure:"default_size" json:"default_size" validate:"gt=0"`
	MaxSize     int `mapstructure:"max_size" json:"max_size" validate:"gt=0,gtefield=DefaultSize"`
}

const (
	fallbackDefaultSize = 20
	fallbackMaxSize     = 100
)

// DefaultLimits returns the conventional 20/100 policy.
func DefaultLimits() Limits {
	return Limits{DefaultSize: fallbackDefaultSize, MaxSize: fallbackMaxSize}
}

// normalized repairs a zero or inconsistent policy so construction never fails.
func (l Limits) normalized() Limits {
	if l.MaxSize <= 0 {
		l.MaxSize = fallbackMaxSize
	}
	if l.DefaultSize <= 0 {
		l.DefaultSize = fallbackDefaultSize
	}
	if l.DefaultSize > l.MaxSize {
		l.DefaultSize = l.MaxSize
	}
	return l
}

// Clamp applies the policy to a requested size. nil or non-positive sizes get
// the default, oversized requests are capped.
func (l Limits) Clamp(size *int) int {
	l = l.normalized()
	switch {
	case size == nil || *size <= 0:
		return l.DefaultSize
	case *size > l.MaxSize:
		return l.MaxSize
	default:
		return *size
	}
}

// PageRequest is a normalized cursor position plus slice size and direction.
// The zero value is not usable; build one with NewPageRequest or FirstPage.
type PageRequest struct {
	cursor    Key
	hasCursor bool
	size      int
	direction Direction
}

// NewPageRequest decodes the raw cursor and normalizes size once, so nothing
// downstream ever sees an invalid size.
func NewPageRequest(limits Limits, cursorRaw string, size *int) PageRequest {
	k, ok := DecodeCursor(cursorRaw)
	return PageRequest{cursor: k, hasCursor: ok, size: limits.Clamp(size)}
}

// FirstPage builds a cursor-less request of the given size.
func FirstPage(limits Limits, size int) PageRequest {
	return PageRequest{size: limits.Clamp(&size)}
}

// WithDirection returns a copy ordered in d.
func (p PageRequest) WithDirection(d Direction) PageRequest {
	p.direction = d
	return p
}

// After returns a copy positioned after k, keeping size and direction.
func (p PageRequest) After(k Key) PageRequest {
	p.cursor, p.hasCursor = k, k > 0
	return p
}

// Cursor reports the position to resume after, if any.
func (p PageRequest) Cursor() (Key, bool) { return p.cursor, p.hasCursor }

// Size is the number of rows the caller will receive at most.
func (p PageRequest) Size() int { return p.size }

// FetchSize is Size()+1: the extra probe row detects a following slice
// without a COUNT query.
func (p PageRequest) FetchSize() int { return p.size + 1 }

// IsFirstPage reports whether no cursor was supplied (or it was unusable).
func (p PageRequest) IsFirstPage() bool { return !p.hasCursor }

// Direction is the position-key ordering.
func (p PageRequest) Direction() Direction { return p.direction }
