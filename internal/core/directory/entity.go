package directory

import "time"

// Employee は組織ディレクトリ上の従業員エンティティです。
type Employee struct {
	ID         string
	FirstName  string
	LastName   string
	Email      string
	Department string
	IsManager  bool
	ManagerID  *string
	CreatedAt  time.Time
}

// FullName は表示用の氏名を返します。
func (e *Employee) FullName() string {
	return e.FirstName + " " + e.LastName
}

// IsTopLevel は上位マネージャーを持たないかどうかを返します。
func (e *Employee) IsTopLevel() bool {
	return e.ManagerID == nil
}
