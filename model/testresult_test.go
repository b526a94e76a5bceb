package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var goldenStart = time.Date(2024, 5, 6, 7, 8, 9, 123000000, time.UTC)

func goldenTestResult() TestResult {
	start := NewUTCTime(goldenStart)
	end := NewUTCTime(goldenStart.Add(877 * time.Millisecond))
	return TestResult{
		Test:       NewTestCase("suite/mod.py/test_x", map[string]AttributeValue{"owner": ListAttribute("alice", "bob")}),
		StartTime:  start,
		ResultType: ResultTypeFailed,
		Message:    "AAA is not BBB",
		EndTime:    end.Ptr(),
		Steps: []TestCaseStep{
			{
				StartTime: start,
				Title:     "setup",
				Logs: []TestCaseLog{
					{
						Time:        start,
						Level:       LogLevelWarn,
						Content:     "slow",
						AssertError: &TestCaseAssertError{Expect: "AAA", Actual: "BBB", Message: "AAA is not BBB"},
						Attachments: []Attachment{
							{Name: "log", Url: "https://example.com/log", AttachmentType: AttachmentURL},
						},
					},
				},
			},
		},
	}
}

func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestTestResultWireFormat(t *testing.T) {
	data, err := json.Marshal(goldenTestResult())
	require.NoError(t, err)
	newGoldie(t).Assert(t, "test_result", data)
}

func TestLoadResultWireFormat(t *testing.T) {
	r := NewLoadResult()
	r.AddTest(NewTestCase("suite/mod.py/test_x", map[string]AttributeValue{"tag": StringAttribute("P1")}))
	r.AddError("e1", "boom")
	data, err := json.Marshal(r)
	require.NoError(t, err)
	newGoldie(t).Assert(t, "load_result", data)
}

func TestTestResultJSONRoundTrip(t *testing.T) {
	original := goldenTestResult()
	original.Steps = append(original.Steps, TestCaseStep{
		StartTime: original.StartTime,
		Title:     "still open",
		Logs: []TestCaseLog{{
			Time:         original.StartTime,
			Level:        LogLevelError,
			Content:      "crashed",
			RuntimeError: &TestCaseRuntimeError{Summary: "panic", Detail: "stack..."},
			Attachments:  []Attachment{},
		}},
	})
	data, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded TestResult
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.NoError(t, decoded.Validate())
	if diff := cmp.Diff(original, decoded); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestTestResultWithoutStepsEncodesEmptyList(t *testing.T) {
	r := TestResult{
		Test:       NewTestCase("x", nil),
		StartTime:  NewUTCTime(goldenStart),
		ResultType: ResultTypeRunning,
	}
	data, err := json.Marshal(r)
	require.NoError(t, err)

	var generic map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &generic))
	assert.Equal(t, []interface{}{}, generic["Steps"])
	assert.Nil(t, generic["EndTime"])
}

func TestEnumWireValues(t *testing.T) {
	levels := map[LogLevel]string{
		LogLevelTrace: "VERBOSE",
		LogLevelDebug: "DEBUG",
		LogLevelInfo:  "INFO",
		LogLevelWarn:  "WARNNING",
		LogLevelError: "ERROR",
	}
	for level, wire := range levels {
		data, err := json.Marshal(level)
		require.NoError(t, err)
		assert.Equal(t, `"`+wire+`"`, string(data))
	}

	for _, rt := range allResultTypes {
		var decoded ResultType
		require.NoError(t, json.Unmarshal([]byte(`"`+string(rt)+`"`), &decoded))
		assert.Equal(t, rt, decoded)
	}
}

func TestEnumsRejectUnknownValues(t *testing.T) {
	var level LogLevel
	assert.Error(t, json.Unmarshal([]byte(`"WARN"`), &level))
	var rt ResultType
	assert.Error(t, json.Unmarshal([]byte(`"PASSED"`), &rt))
	var at AttachmentType
	assert.Error(t, json.Unmarshal([]byte(`"file"`), &at))
	assert.Error(t, json.Unmarshal([]byte(`1`), &at))
}

func TestResultTypeClassification(t *testing.T) {
	assert.True(t, ResultTypeSucceed.IsFinal())
	assert.True(t, ResultTypeIgnored.IsFinal())
	assert.False(t, ResultTypeRunning.IsFinal())
	assert.False(t, ResultTypeWaiting.IsFinal())
	assert.True(t, ResultTypeLoadFailed.IsFailure())
	assert.False(t, ResultTypeSucceed.IsFailure())
}

func TestTestResultValidate(t *testing.T) {
	assert.NoError(t, goldenTestResult().Validate())

	noStart := goldenTestResult()
	noStart.StartTime = UTCTime{}
	assert.Error(t, noStart.Validate())

	noName := goldenTestResult()
	noName.Test.Name = ""
	assert.Error(t, noName.Validate())

	noStatus := goldenTestResult()
	noStatus.ResultType = ""
	assert.Error(t, noStatus.Validate())

	badLevel := goldenTestResult()
	badLevel.Steps[0].Logs[0].Level = "WARN"
	assert.Error(t, badLevel.Validate())
}
