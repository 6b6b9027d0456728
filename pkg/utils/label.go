package utils

// Label 是推荐结果的解释信息：可追踪、可透传。
// 例如 filter.hard=bedrooms、rank.score=0.8125、rerank.topn=3。
type Label struct {
	Value  string `json:"value"`
	Source string `json:"source"` // filter / rank / rerank / rule / recommend
}

// NewLabel 构造 Label
func NewLabel(value, source string) Label {
	return Label{Value: value, Source: source}
}

// MergeLabel 合并同名 Label，保留历史：
// - Value: 以 '|' 累积
// - Source: 以 ',' 累积
func MergeLabel(existing Label, incoming Label) Label {
	if existing.Value == "" {
		return incoming
	}
	if incoming.Value == "" {
		return existing
	}

	merged := existing
	merged.Value = existing.Value + "|" + incoming.Value
	switch {
	case existing.Source == "":
		merged.Source = incoming.Source
	case incoming.Source == "":
		merged.Source = existing.Source
	case existing.Source == incoming.Source:
		merged.Source = existing.Source
	default:
		merged.Source = existing.Source + "," + incoming.Source
	}
	return merged
}
