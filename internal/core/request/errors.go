package request

import "errors"

var (
	// ErrRequestNotFound は申請が存在しない場合に返却されます。
	ErrRequestNotFound = errors.New("request: not found")
	// ErrNotDecidable は「承認権限がない」「既に決裁済み」「pending ではない」を
	// 区別せずに返却される統一エラーです。
	ErrNotDecidable = errors.New("request: not authorized or already decided")
	// ErrJustificationTooShort は申請理由が規定の長さに満たない場合に返却されます。
	ErrJustificationTooShort = errors.New("request: justification too short")
	// ErrCommentRequired は却下時にコメントが欠落している場合に返却されます。
	ErrCommentRequired = errors.New("request: comment required for rejection")
	// ErrInvalidDecision は判断種別が不正な場合に返却されます。
	ErrInvalidDecision = errors.New("request: invalid decision")
	// ErrInvalidID は申請IDが不正な場合に返却されます。
	ErrInvalidID = errors.New("request: invalid id")
	// ErrInvalidRequesterID は申請者IDが不正な場合に返却されます。
	ErrInvalidRequesterID = errors.New("request: invalid requester id")
	// ErrInvalidActorID は操作主体のIDが不正な場合に返却されます。
	ErrInvalidActorID = errors.New("request: invalid actor id")
	// ErrRequesterNotFound は申請者がディレクトリに存在しない場合に返却されます。
	ErrRequesterNotFound = errors.New("request: requester not found")
	// ErrResourceNotFound は申請対象テーブルがカタログに存在しない場合に返却されます。
	ErrResourceNotFound = errors.New("request: resource not found")
	// ErrAccessLevelNotFound はロールがカタログに存在しない場合に返却されます。
	ErrAccessLevelNotFound = errors.New("request: access level not found")
)
