package render

import "beatbyte/refresh"

// MaxInvalidAreas bounds the dirty list. One more area turns the next
// refresh into a full-screen redraw.
const MaxInvalidAreas = 32

type invalidList struct {
	areas [MaxInvalidAreas]refresh.Area
	n     int
	full  bool
}

func (l *invalidList) reset() {
	l.n = 0
	l.full = false
}

func (l *invalidList) empty() bool { return l.n == 0 && !l.full }

// add records a, already clipped to the screen.
func (l *invalidList) add(a refresh.Area) {
	if l.full || a.Empty() {
		return
	}
	for {
		merged := false
		for i := 0; i < l.n; i++ {
			cur := l.areas[i]
			if contains(cur, a) {
				return
			}
			if !touches(cur, a) {
				continue
			}
			u := union(cur, a)
			if u.Pixels() > cur.Pixels()+a.Pixels() {
				continue
			}
			l.remove(i)
			a = u
			merged = true
			break
		}
		if !merged {
			break
		}
	}
	if l.n == MaxInvalidAreas {
		l.full = true
		l.n = 0
		return
	}
	l.areas[l.n] = a
	l.n++
}

func (l *invalidList) remove(i int) {
	copy(l.areas[i:l.n-1], l.areas[i+1:l.n])
	l.n--
}

func clip(a, bounds refresh.Area) refresh.Area {
	if a.X1 < bounds.X1 {
		a.X1 = bounds.X1
	}
	if a.Y1 < bounds.Y1 {
		a.Y1 = bounds.Y1
	}
	if a.X2 > bounds.X2 {
		a.X2 = bounds.X2
	}
	if a.Y2 > bounds.Y2 {
		a.Y2 = bounds.Y2
	}
	return a
}

func contains(outer, inner refresh.Area) bool {
	return inner.X1 >= outer.X1 && inner.Y1 >= outer.Y1 &&
		inner.X2 <= outer.X2 && inner.Y2 <= outer.Y2
}

// touches reports whether a and b overlap or share an edge.
func touches(a, b refresh.Area) bool {
	return int(a.X1) <= int(b.X2)+1 && int(b.X1) <= int(a.X2)+1 &&
		int(a.Y1) <= int(b.Y2)+1 && int(b.Y1) <= int(a.Y2)+1
}

func union(a, b refresh.Area) refresh.Area {
	if b.X1 < a.X1 {
		a.X1 = b.X1
	}
	if b.Y1 < a.Y1 {
		a.Y1 = b.Y1
	}
	if b.X2 > a.X2 {
		a.X2 = b.X2
	}
	if b.Y2 > a.Y2 {
		a.Y2 = b.Y2
	}
	return a
}
