package services

import (
	"errors"
	"fmt"
)

var (
	ErrSelfRequest           = errors.New("không thể gửi lời mời kết bạn cho chính mình")
	ErrAlreadyFriends        = errors.New("hai người đã là bạn bè")
	ErrRequestAlreadyPending = errors.New("đã có lời mời kết bạn đang chờ xử lý")
	ErrUnauthorized          = errors.New("không có quyền thao tác trên tài nguyên này")
	ErrStoreUnavailable      = errors.New("kho dữ liệu tạm thời không khả dụng")
	ErrEpisodeExists         = errors.New("tập phim này đã tồn tại")
	ErrInvalidInput          = errors.New("dữ liệu không hợp lệ")

	// ErrNotFound matches every *NotFound error below.
	ErrNotFound = errors.New("không tìm thấy")

	ErrRecipientNotFound    error = &notFoundError{"người nhận không tồn tại"}
	ErrRelationshipNotFound error = &notFoundError{"không tìm thấy quan hệ bạn bè phù hợp"}
	ErrNotificationNotFound error = &notFoundError{"không tìm thấy thông báo"}
	ErrMovieNotFound        error = &notFoundError{"không tìm thấy phim"}
	ErrEpisodeNotFound      error = &notFoundError{"không tìm thấy tập phim"}
)

type notFoundError struct{ msg string }

func (e *notFoundError) Error() string        { return e.msg }
func (e *notFoundError) Is(target error) bool { return target == ErrNotFound }

// PendingDirection tells the caller who sent the pending request.
type PendingDirection string

const (
	DirectionOutgoing PendingDirection = "outgoing" // 你已经发过
	DirectionIncoming PendingDirection = "incoming" // 对方已经发给你，界面应显示"接受"
)

// PendingRequestError is returned by SendRequest when the pair already has a
// pending row. It matches ErrRequestAlreadyPending.
type PendingRequestError struct {
	Direction PendingDirection
}

func (e *PendingRequestError) Error() string {
	if e.Direction == DirectionIncoming {
		return "người này đã gửi lời mời kết bạn cho bạn"
	}
	return "bạn đã gửi lời mời kết bạn cho người này"
}

func (e *PendingRequestError) Is(target error) bool {
	return target == ErrRequestAlreadyPending
}

// storeErr marks a durability-layer failure; the cause stays in the chain.
func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}
