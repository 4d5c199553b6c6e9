package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"autoplate-renamer/internal/domain/account"
	"autoplate-renamer/internal/repository"
)

type storedUser struct {
	user account.User
	hash string
}

type fakeUserStore struct {
	mu     sync.Mutex
	nextID int
	users  map[string]*storedUser
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[string]*storedUser{}}
}

func (f *fakeUserStore) FindByEmail(ctx context.Context, email string) (*account.User, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, su := range f.users {
		if su.user.Email == email {
			u := su.user
			return &u, su.hash, nil
		}
	}
	return nil, "", repository.ErrNotFound
}

func (f *fakeUserStore) FindByID(ctx context.Context, id string) (*account.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	su, ok := f.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	u := su.user
	return &u, nil
}

func (f *fakeUserStore) List(ctx context.Context) ([]account.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]account.User, 0, len(f.users))
	for _, su := range f.users {
		out = append(out, su.user)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeUserStore) Create(ctx context.Context, u *account.User, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, su := range f.users {
		if su.user.Email == u.Email {
			return repository.ErrDuplicate
		}
	}
	f.nextID++
	u.ID = fmt.Sprintf("user-%02d", f.nextID)
	u.CreatedAt = time.Now()
	f.users[u.ID] = &storedUser{user: *u, hash: hash}
	return nil
}

func (f *fakeUserStore) Update(ctx context.Context, id string, fields map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	su, ok := f.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	for k, v := range fields {
		switch k {
		case "username":
			su.user.Username = v.(string)
		case "email":
			su.user.Email = v.(string)
		case "phone_number":
			su.user.PhoneNumber = v.(string)
		case "role":
			su.user.Role = account.Role(v.(string))
		case "password_hash":
			su.hash = v.(string)
		case "input_folder_path":
			s := v.(string)
			su.user.InputFolderPath = &s
		case "output_folder_path":
			s := v.(string)
			su.user.OutputFolderPath = &s
		default:
			return fmt.Errorf("unknown column %s", k)
		}
	}
	return nil
}

func (f *fakeUserStore) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.users, id)
	return nil
}

func (f *fakeUserStore) CountByRole(ctx context.Context, role account.Role) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, su := range f.users {
		if su.user.Role == role {
			n++
		}
	}
	return n, nil
}

type fakeLogStore struct {
	mu      sync.Mutex
	entries []account.ProcessingLog
	err     error
}

func (f *fakeLogStore) Create(ctx context.Context, entry *account.ProcessingLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	entry.ID = fmt.Sprintf("log-%d", len(f.entries)+1)
	if entry.Timestamp == 0 {
		entry.Timestamp = time.Now().UnixMilli()
	}
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeLogStore) match(flt account.LogFilter, e account.ProcessingLog) bool {
	if flt.UserID != nil && e.UserID != *flt.UserID {
		return false
	}
	if flt.From != nil && e.Timestamp < flt.From.UnixMilli() {
		return false
	}
	if flt.To != nil && e.Timestamp > flt.To.UnixMilli() {
		return false
	}
	return true
}

func (f *fakeLogStore) List(ctx context.Context, flt account.LogFilter) ([]account.ProcessingLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []account.ProcessingLog
	for i := len(f.entries) - 1; i >= 0; i-- {
		if f.match(flt, f.entries[i]) {
			out = append(out, f.entries[i])
		}
	}
	return out, nil
}

func (f *fakeLogStore) Count(ctx context.Context, flt account.LogFilter) (int64, error) {
	logs, err := f.List(ctx, flt)
	return int64(len(logs)), err
}

type fakeConfigStore struct {
	mu     sync.Mutex
	values map[string]string
}

func (f *fakeConfigStore) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.values[key]
	if !ok {
		return "", repository.ErrNotFound
	}
	return v, nil
}

func (f *fakeConfigStore) Set(ctx context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.values == nil {
		f.values = map[string]string{}
	}
	f.values[key] = value
	return nil
}
