package inmemdb

import (
	"sync"

	"github.com/chuolink/shule/core/class"
	"github.com/chuolink/shule/core/staff"
	"github.com/chuolink/shule/core/student"
)

type (
	staffTable struct {
		mutex sync.RWMutex
		table map[string]*staff.Staff
	}

	studentTable struct {
		mutex sync.RWMutex
		table map[string]*student.Student
	}

	classTable struct {
		mutex sync.RWMutex
		table map[string]*class.Class
	}

	// DB is an in-memory store, used in tests and local tinkering.
	DB struct {
		staff    *staffTable
		students *studentTable
		classes  *classTable
	}
)

func Open() (*DB, error) {
	return &DB{
		staff:    &staffTable{table: make(map[string]*staff.Staff)},
		students: &studentTable{table: make(map[string]*student.Student)},
		classes:  &classTable{table: make(map[string]*class.Class)},
	}, nil
}
