// Package modeltest builds payload values for tests of the reporting protocol.
package modeltest

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/OpenTestSolar/testtool-sdk-golang/model"
)

// MultilingualMessage is a long multi-line message in several scripts, the kind of text
// plugins put in load errors.
const MultilingualMessage = `
文件读取失败。可能的原因包括：文件不存在、文件损坏、
不正确的编码方式或其他未知错误。请检查文件路径和内容的正确性，

"en": "File not found. Please check the file path and try again.",
"zh": "文件未找到。请检查文件路径，然后重试。",
"ja": "ファイルが見つかりません。ファイルパスを確認して、もう一度試してください。",
"ko": "파일을 찾을 수 없습니다. 파일 경로를 확인하고 다시 시도하십시오.",
"ar": "الملف غير موجود. يرجى التحقق من مسار الملف والمحاولة مرة أخرى.",
"th": "ไม่พบไฟล์ โปรดตรวจสอบเส้นทางไฟล์และลองอีกครั้ง",
`

// BaseTime is a fixed instant used so encoded payloads are reproducible.
var BaseTime = time.Date(2024, 5, 6, 7, 8, 9, 123000000, time.UTC)

// TestName returns the name of the i-th generated test case.
func TestName(i int) string {
	return fmt.Sprintf("mumu/mu.py/test_case_name_%d_p1", i)
}

// LoadResult returns a LoadResult with the given numbers of test cases and load errors.
func LoadResult(tests, loadErrors int) model.LoadResult {
	r := model.NewLoadResult()
	for i := 0; i < tests; i++ {
		r.AddTest(model.NewTestCase(TestName(i), map[string]model.AttributeValue{
			"tag":    model.StringAttribute("P1"),
			"owners": model.ListAttribute("alice", "bob"),
		}))
	}
	for i := 0; i < loadErrors; i++ {
		r.AddError(fmt.Sprintf("load error %d", i), MultilingualMessage)
	}
	return r
}

// TestResult returns a finished, successful TestResult for the i-th test case with the
// given numbers of steps and logs per step.
func TestResult(i, steps, logsPerStep int) model.TestResult {
	start := model.NewUTCTime(BaseTime)
	end := model.NewUTCTime(BaseTime.Add(40 * time.Second))
	r := model.TestResult{
		Test:       model.NewTestCase(TestName(i), nil),
		StartTime:  start,
		ResultType: model.ResultTypeSucceed,
		Message:    "ファイルが見つかりません。ファイルパスを確認して、もう一度試してください。",
		EndTime:    end.Ptr(),
		Steps:      []model.TestCaseStep{},
	}
	for s := 0; s < steps; s++ {
		r.Steps = append(r.Steps, Step(fmt.Sprintf("%d_%d", i, s), logsPerStep))
	}
	return r
}

// Step returns a closed step holding n logs.
func Step(title string, n int) model.TestCaseStep {
	start := model.NewUTCTime(BaseTime.Add(30 * time.Second))
	end := model.NewUTCTime(BaseTime.Add(40 * time.Second))
	step := model.TestCaseStep{
		StartTime: start,
		Title:     title,
		EndTime:   end.Ptr(),
		Logs:      []model.TestCaseLog{},
	}
	for i := 0; i < n; i++ {
		step.Logs = append(step.Logs, Log(i))
	}
	return step
}

// Log returns a log entry carrying an assertion error and one attachment.
func Log(i int) model.TestCaseLog {
	return model.TestCaseLog{
		Time:  model.NewUTCTime(BaseTime.Add(time.Duration(i) * time.Millisecond)),
		Level: model.LogLevelInfo,
		Content: fmt.Sprintf("采集器：coll-imrv6szb当前状态为0，预期状态为1，状态不一致（0:处理中,1:正常） -> %s",
			RandomText(20)),
		AssertError: &model.TestCaseAssertError{Expect: "AAA", Actual: "BBB", Message: "AAA is not BBB"},
		Attachments: []model.Attachment{
			{Name: fmt.Sprintf("access.log_%d", i), Url: "/tmp/access.log", AttachmentType: model.AttachmentFile},
		},
	}
}

var textRanges = [][2]rune{
	{0x0021, 0x0021},
	{0x0023, 0x0026},
	{0x0028, 0x007E},
	{0x00A1, 0x00AC},
	{0x00AE, 0x00FF},
	{0x0100, 0x017F},
	{0x0180, 0x024F},
	{0x2C60, 0x2C7F},
	{0x16A0, 0x16F0},
	{0x0370, 0x0377},
}

// RandomText returns n random printable runes from several scripts.
func RandomText(n int) string {
	var alphabet []rune
	for _, r := range textRanges {
		for c := r[0]; c <= r[1]; c++ {
			alphabet = append(alphabet, c)
		}
	}
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteRune(alphabet[rand.Intn(len(alphabet))])
	}
	return b.String()
}
