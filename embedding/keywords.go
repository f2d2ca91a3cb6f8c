package embedding

import "strings"

// tokenize 切分自由文本为关键词 token：小写、去标点、丢弃长度 ≤3 的 token。
func tokenize(text string) []string {
	if text == "" {
		return nil
	}

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}

	fields := strings.Fields(b.String())
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) > 3 {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// hashToken 是 32 位多项式滚动哈希：hash = hash*31 + charCode，
// 回绕到有符号 32 位后取绝对值。
func hashToken(token string) int32 {
	var h int32
	for _, r := range token {
		h = h*31 + int32(r)
	}
	if h < 0 {
		// MinInt32 取反仍为负，钉到 MaxInt32
		if h == -2147483648 {
			return 2147483647
		}
		return -h
	}
	return h
}

// keywordBuckets 把 token 哈希进 bucketCount 个桶累积计数，按 token 数归一化。
// 空文本/无有效 token 返回全零子向量。
func keywordBuckets(text string, bucketCount int) []float64 {
	out := make([]float64, bucketCount)
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return out
	}
	for _, tok := range tokens {
		idx := int(hashToken(tok)) % bucketCount
		out[idx]++
	}
	n := float64(len(tokens))
	for i := range out {
		out[i] /= n
	}
	return out
}
