package core

import "github.com/rushteam/roomrec/pkg/utils"

// RecommendContext 承载用户/请求信息，贯穿整个 Pipeline 透传。
type RecommendContext struct {
	UserID    string
	RequestID string

	// Profile 是本次排序使用的偏好画像，进入 Pipeline 前必须已替换为默认画像（如果用户没有）。
	Profile *Profile

	// Labels 是请求级标签，例如 default_profile
	Labels map[string]utils.Label

	// Params 请求级参数，规则表达式可通过 rctx.params 访问
	Params map[string]any
}

// PutLabel 写入请求级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取请求级 Label。
func (rctx *RecommendContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}
