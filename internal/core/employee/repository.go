package employee

import "context"

// Store は登録済み社員のスナップショットを永続化する先の抽象です。
// 正本は Registry であり、Store は起動時の復元と書き込みの追随に使います。
type Store interface {
	Save(ctx context.Context, employee *Employee) error
	Delete(ctx context.Context, email string) error
	LoadAll(ctx context.Context) ([]*Employee, error)
}

// ListEmployeesFilter は一覧取得用フィルタです。
type ListEmployeesFilter struct {
	CompanyName string
	Status      *Status
	Limit       int
	Offset      int
}

type noopStore struct{}

func (noopStore) Save(context.Context, *Employee) error { return nil }

func (noopStore) Delete(context.Context, string) error { return nil }

func (noopStore) LoadAll(context.Context) ([]*Employee, error) { return nil, nil }
