package directory

import "errors"

var (
	// ErrEmployeeNotFound は従業員が存在しない場合に返却されます。
	ErrEmployeeNotFound = errors.New("directory: employee not found")
	// ErrManagerNotFound は指定されたマネージャーが存在しない場合に返却されます。
	ErrManagerNotFound = errors.New("directory: manager not found")
	// ErrNotAManager はマネージャー権限のない従業員をマネージャーとして指定した場合に返却されます。
	ErrNotAManager = errors.New("directory: employee is not a manager")
	// ErrEmailAlreadyExists はメールアドレス重複時に返却されます。
	ErrEmailAlreadyExists = errors.New("directory: email already exists")
	// ErrInvalidID はIDが不正な場合に返却されます。
	ErrInvalidID = errors.New("directory: invalid id")
	// ErrInvalidEmail はメールアドレスが不正な場合に返却されます。
	ErrInvalidEmail = errors.New("directory: invalid email")
	// ErrInvalidName は氏名が不正な場合に返却されます。
	ErrInvalidName = errors.New("directory: invalid name")
	// ErrInvalidDepartment は部署名が不正な場合に返却されます。
	ErrInvalidDepartment = errors.New("directory: invalid department")
)
