package importer

import "sort"

// Summary は 1 回の取り込み結果です。Errors のキーは 1 始まりの元データ行番号です。
type Summary struct {
	SuccessCount int
	Errors       map[int]string
}

// Lines はエラーのある行番号を昇順で返します。
func (s Summary) Lines() []int {
	lines := make([]int, 0, len(s.Errors))
	for line := range s.Errors {
		lines = append(lines, line)
	}
	sort.Ints(lines)
	return lines
}

// Total は成功件数とエラー件数の合計です。
func (s Summary) Total() int {
	return s.SuccessCount + len(s.Errors)
}

// Accumulator は取り込み 1 回分の結果を集計します。同じ行へのエラーは後勝ちです。
type Accumulator struct {
	successCount int
	errors       map[int]string
}

// NewAccumulator は空の Accumulator を生成します。
func NewAccumulator() *Accumulator {
	return &Accumulator{errors: make(map[int]string)}
}

// RecordSuccess は成功件数を 1 増やします。
func (a *Accumulator) RecordSuccess() {
	a.successCount++
}

// RecordError は行番号に対するエラーを記録します。既存のエラーは上書きされます。
func (a *Accumulator) RecordError(line int, message string) {
	a.errors[line] = message
}

// Summary は集計結果のコピーを返します。
func (a *Accumulator) Summary() Summary {
	errs := make(map[int]string, len(a.errors))
	for line, msg := range a.errors {
		errs[line] = msg
	}
	return Summary{SuccessCount: a.successCount, Errors: errs}
}
