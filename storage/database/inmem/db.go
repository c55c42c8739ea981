package inmemdb

import (
	"sync"

	"github.com/trezcool/darasa/core/attendance"
	"github.com/trezcool/darasa/core/student"
	"github.com/trezcool/darasa/core/user"
)

// DB is an in-memory store used by tests; it mirrors the relational schema
// closely enough to honor the same foreign keys as the SQL repositories.
type DB struct {
	users    *userTable
	students *studentTable
	sessions *sessionTable
	records  *recordTable
}

type (
	userTable struct {
		mutex sync.RWMutex
		table map[string]*user.User
	}

	studentTable struct {
		mutex sync.RWMutex
		table map[string]*student.Student
	}

	sessionTable struct {
		mutex sync.RWMutex
		table map[string]*attendance.Session
	}

	recordTable struct {
		mutex   sync.RWMutex
		pkCount int64
		table   map[int64]*attendance.Record
	}
)

func Open() (*DB, error) {
	db := &DB{
		users:    &userTable{table: make(map[string]*user.User)},
		students: &studentTable{table: make(map[string]*student.Student)},
		sessions: &sessionTable{table: make(map[string]*attendance.Session)},
		records:  &recordTable{table: make(map[int64]*attendance.Record)},
	}
	return db, nil
}
