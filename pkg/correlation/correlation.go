package correlation

import (
	"context"

	"github.com/google/uuid"
)

type ctxKey struct{}

// NewID 生成一次请求的关联ID，贯穿日志、审计和对外错误响应
func NewID() string {
	return uuid.NewString()
}

// WithContext 把关联ID放进上下文
func WithContext(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext 取出关联ID，取不到返回空串
func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}
