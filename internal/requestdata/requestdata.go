package requestdata

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type requestDataKey struct{}

// RequestData is the ambient per-request authorization context installed by
// the auth middleware. Conn is the request-scoped database handle; components
// that were not wired with an explicit persistence handle may fall back to it.
type RequestData struct {
	TokenString string
	UserID      uuid.UUID
	CoachID     string
	Conn        *gorm.DB
}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey{}, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	if rd, ok := ctx.Value(requestDataKey{}).(*RequestData); ok {
		return rd
	}
	return nil
}
