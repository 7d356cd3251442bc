package employee

import (
	"strconv"
	"sync"
)

// Registry は登録済み社員のインメモリ集合です。メールアドレス(大文字小文字を区別しない)で一意になります。
// 書き込みは排他、読み取りは並行に実行できます。
type Registry struct {
	mu    sync.RWMutex
	byKey map[string]*Employee
	order []string
}

// NewRegistry は空の Registry を生成します。
func NewRegistry() *Registry {
	return &Registry{byKey: make(map[string]*Employee)}
}

// Add は社員を登録します。同じメールアドレスが存在する場合は ErrDuplicateEmail を返します。
func (r *Registry) Add(e *Employee) error {
	_, err := r.add(e)
	return err
}

// add は登録したエントリそのものを返します。ロールバック時の同一性確認に使います。
func (r *Registry) add(e *Employee) (*Employee, error) {
	if e == nil {
		return nil, ErrInvalidRecord
	}
	key := emailKey(e.Email)
	if key == "" {
		return nil, ErrInvalidEmail
	}
	if !validSalary(e.Salary) {
		return nil, ErrInvalidSalary
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byKey[key]; exists {
		return nil, ErrDuplicateEmail
	}
	entry := cloneEmployee(e)
	r.byKey[key] = entry
	r.order = append(r.order, key)
	return entry, nil
}

// Update は mutate をコピーに適用し、成功した場合のみ反映します。
// メールアドレスの変更と範囲外の給与は拒否します。
func (r *Registry) Update(email string, mutate func(*Employee) error) (*Employee, error) {
	entry, err := r.update(email, mutate)
	if err != nil {
		return nil, err
	}
	return cloneEmployee(entry), nil
}

func (r *Registry) update(email string, mutate func(*Employee) error) (*Employee, error) {
	key := emailKey(email)

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.byKey[key]
	if !ok {
		return nil, ErrEmployeeNotFound
	}

	candidate := cloneEmployee(existing)
	if mutate != nil {
		if err := mutate(candidate); err != nil {
			return nil, err
		}
	}
	if emailKey(candidate.Email) != key {
		return nil, ErrEmailImmutable
	}
	if !validSalary(candidate.Salary) {
		return nil, ErrInvalidSalary
	}

	r.byKey[key] = candidate
	return candidate, nil
}

// revert は現在のエントリが expected のままの場合に限り、previous に戻します。
// previous が nil の場合はエントリを削除します。expected 以降に別の書き込みがあれば何もせず false を返します。
func (r *Registry) revert(expected, previous *Employee) bool {
	if expected == nil {
		return false
	}
	key := emailKey(expected.Email)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.byKey[key] != expected {
		return false
	}
	if previous != nil {
		r.byKey[key] = cloneEmployee(previous)
		return true
	}
	r.removeLocked(key)
	return true
}

// Remove は社員を削除します。
func (r *Registry) Remove(email string) error {
	key := emailKey(email)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byKey[key]; !ok {
		return ErrEmployeeNotFound
	}
	r.removeLocked(key)
	return nil
}

func (r *Registry) removeLocked(key string) {
	delete(r.byKey, key)
	for idx, k := range r.order {
		if k == key {
			r.order = append(r.order[:idx], r.order[idx+1:]...)
			break
		}
	}
}

// FindByEmail はメールアドレスで社員を検索します。
func (r *Registry) FindByEmail(email string) (*Employee, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	found, ok := r.byKey[emailKey(email)]
	if !ok {
		return nil, ErrEmployeeNotFound
	}
	return cloneEmployee(found), nil
}

// All は登録順に全社員のコピーを返します。
func (r *Registry) All() []*Employee {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Employee, 0, len(r.order))
	for _, key := range r.order {
		result = append(result, cloneEmployee(r.byKey[key]))
	}
	return result
}

// Len は登録件数を返します。
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// List は条件に一致する社員を登録順にページングして返します。
func (r *Registry) List(filter ListEmployeesFilter) ([]*Employee, string, error) {
	if filter.Limit <= 0 {
		return nil, "", ErrInvalidPageSize
	}
	if filter.Offset < 0 {
		return nil, "", ErrInvalidPageToken
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var filtered []*Employee
	for _, key := range r.order {
		emp := r.byKey[key]
		if filter.CompanyName != "" && emp.CompanyName != filter.CompanyName {
			continue
		}
		if filter.Status != nil && emp.Status != *filter.Status {
			continue
		}
		filtered = append(filtered, emp)
	}

	if filter.Offset >= len(filtered) {
		return []*Employee{}, "", nil
	}

	end := filter.Offset + filter.Limit
	if end > len(filtered) {
		end = len(filtered)
	}

	page := make([]*Employee, 0, end-filter.Offset)
	for _, emp := range filtered[filter.Offset:end] {
		page = append(page, cloneEmployee(emp))
	}

	nextToken := ""
	if end < len(filtered) {
		nextToken = strconv.Itoa(end)
	}
	return page, nextToken, nil
}
