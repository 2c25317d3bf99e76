package reservation

import (
	"sort"
	"sync"

	"clinic-reservation-backend/internal/model"
)

// Directory caches student records known to the client.
type Directory struct {
	mu       sync.RWMutex
	students map[int64]model.Student
}

// NewDirectory creates a directory holding students.
func NewDirectory(students ...model.Student) *Directory {
	d := &Directory{students: make(map[int64]model.Student)}
	d.Load(students)
	return d
}

// Load replaces every cached record.
func (d *Directory) Load(students []model.Student) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.students = make(map[int64]model.Student, len(students))
	for _, s := range students {
		d.students[s.ID] = s
	}
}

// Get returns the cached record for id.
func (d *Directory) Get(id int64) (model.Student, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	s, ok := d.students[id]
	return s, ok
}

// Put stores s, overwriting any cached record.
func (d *Directory) Put(s model.Student) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.students[s.ID] = s
}

// Update applies mutate to the cached record and returns a func that
// restores the previous record.
func (d *Directory) Update(id int64, mutate func(*model.Student)) (undo func(), ok bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	prev, ok := d.students[id]
	if !ok {
		return func() {}, false
	}
	next := prev
	mutate(&next)
	d.students[id] = next
	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.students[id] = prev
	}, true
}

// All returns every cached record ordered by id.
func (d *Directory) All() []model.Student {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]model.Student, 0, len(d.students))
	for _, s := range d.students {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
