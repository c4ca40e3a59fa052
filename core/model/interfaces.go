package model

// ParameterGetter はハイパーパラメータを公開するモデルのインターフェース
type ParameterGetter interface {
	// GetParams はモデルのハイパーパラメータを返す
	GetParams() map[string]interface{}
}

// NestedParams は v が ParameterGetter なら、そのパラメータを
// "prefix__name" の形で dst に追加する (scikit-learn の deep=True と同じ命名)。
// ParameterGetter でなければ何もしない。
func NestedParams(dst map[string]interface{}, prefix string, v interface{}) {
	pg, ok := v.(ParameterGetter)
	if !ok {
		return
	}
	for k, val := range pg.GetParams() {
		dst[prefix+"__"+k] = val
	}
}
