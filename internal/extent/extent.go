// Package extent describes the spatial and temporal bounds a query is
// processed in, and discretizes them into the coordinate axes of output
// arrays.
package extent

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/vk/semcube/internal/array"
)

// Error reports an invalid spatial or temporal extent.
type Error struct {
	Reason string
}

func (e *Error) Error() string {
	return "invalid extent: " + e.Reason
}

func errorf(format string, args ...any) *Error {
	return &Error{Reason: fmt.Sprintf(format, args...)}
}

// Spatial is a bounding box in a target coordinate reference system with a
// cell resolution. Resolution is (dy, dx); a negative dy orders rows from
// the top of the box downwards, the usual raster layout.
type Spatial struct {
	XMin, YMin, XMax, YMax float64
	CRS                    int
	Resolution             [2]float64
}

// Validate checks the box, CRS and resolution.
func (s Spatial) Validate() error {
	if s.XMin >= s.XMax || s.YMin >= s.YMax {
		return errorf("empty spatial bounds [%g %g %g %g]", s.XMin, s.YMin, s.XMax, s.YMax)
	}
	if s.CRS <= 0 {
		return errorf("coordinate reference system %d is not a valid EPSG code", s.CRS)
	}
	if s.Resolution[0] == 0 || s.Resolution[1] == 0 {
		return errorf("spatial resolution must be non-zero, got (%g, %g)", s.Resolution[0], s.Resolution[1])
	}
	if s.Resolution[1] < 0 {
		return errorf("negative x resolution %g", s.Resolution[1])
	}
	return nil
}

// Grid discretizes the box into y and x axes of cell-center coordinates.
func (s Spatial) Grid() (y, x array.Axis, err error) {
	if err := s.Validate(); err != nil {
		return array.Axis{}, array.Axis{}, err
	}
	dy := math.Abs(s.Resolution[0])
	dx := s.Resolution[1]
	ny := int(math.Ceil((s.YMax - s.YMin) / dy))
	nx := int(math.Ceil((s.XMax - s.XMin) / dx))

	yCoords := make([]string, ny)
	for i := 0; i < ny; i++ {
		var center float64
		if s.Resolution[0] < 0 {
			center = s.YMax - (float64(i)+0.5)*dy
		} else {
			center = s.YMin + (float64(i)+0.5)*dy
		}
		yCoords[i] = formatCoord(center)
	}
	xCoords := make([]string, nx)
	for i := 0; i < nx; i++ {
		xCoords[i] = formatCoord(s.XMin + (float64(i)+0.5)*dx)
	}
	return array.Axis{Name: "y", Coords: yCoords}, array.Axis{Name: "x", Coords: xCoords}, nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Temporal is a bounded time interval with a target timezone and a step.
type Temporal struct {
	Start, End time.Time
	TZ         string
	Resolution time.Duration
}

// Validate checks the interval and resolves the timezone.
func (t Temporal) Validate() error {
	_, err := t.location()
	if err != nil {
		return err
	}
	if t.Start.IsZero() || t.End.IsZero() {
		return errorf("temporal extent requires both bounds")
	}
	if !t.End.After(t.Start) {
		return errorf("temporal extent ends (%s) before it starts (%s)", t.End, t.Start)
	}
	return nil
}

func (t Temporal) location() (*time.Location, error) {
	if t.TZ == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(t.TZ)
	if err != nil {
		return nil, errorf("unknown timezone %q", t.TZ)
	}
	return loc, nil
}

// Sequence discretizes the interval into a time axis. Coordinates step by
// the resolution (one day when unset) from the start, inclusive of both
// bounds, rendered as RFC3339 in the target timezone.
func (t Temporal) Sequence() (array.Axis, error) {
	if err := t.Validate(); err != nil {
		return array.Axis{}, err
	}
	loc, _ := t.location()
	step := t.Resolution
	if step <= 0 {
		step = 24 * time.Hour
	}
	var coords []string
	for ts := t.Start; !ts.After(t.End); ts = ts.Add(step) {
		coords = append(coords, ts.In(loc).Format(time.RFC3339))
	}
	return array.Axis{Name: "time", Coords: coords}, nil
}

// Extent is a validated spatio-temporal extent with its discretized axes in
// (time, y, x) order.
type Extent struct {
	Space Spatial
	Time  Temporal
	Axes  []array.Axis
}

// Build validates both extents and discretizes their axes.
func Build(space Spatial, t Temporal) (*Extent, error) {
	timeAxis, err := t.Sequence()
	if err != nil {
		return nil, err
	}
	yAxis, xAxis, err := space.Grid()
	if err != nil {
		return nil, err
	}
	return &Extent{
		Space: space,
		Time:  t,
		Axes:  []array.Axis{timeAxis, yAxis, xAxis},
	}, nil
}

// Axis returns the discretized axis with the given name.
func (e *Extent) Axis(name string) (array.Axis, error) {
	for _, ax := range e.Axes {
		if ax.Name == name {
			return ax, nil
		}
	}
	return array.Axis{}, errorf("extent has no axis %q", name)
}
