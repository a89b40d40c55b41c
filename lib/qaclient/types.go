package qaclient

// TestType identifies how a test's result is recorded and which
// field of a TestInstance carries its value.
type TestType string

const (
	TestTypeSimple     TestType = "simple"
	TestTypeBoolean    TestType = "boolean"
	TestTypeString     TestType = "string"
	TestTypeConstant   TestType = "constant"
	TestTypeWraparound TestType = "wraparound"
	TestTypeDate       TestType = "date"
	TestTypeDatetime   TestType = "datetime"
	TestTypeMultChoice TestType = "multchoice"
	TestTypeUpload     TestType = "upload"
	TestTypeComposite  TestType = "composite"
	TestTypeSComposite TestType = "scomposite"
	TestTypeRLookup    TestType = "rlookup"
	TestTypeULookup    TestType = "ulookup"
)

// Calculated reports whether the server derives this test's value from
// other tests' inputs. Calculated tests are never part of a submission
// payload.
func (t TestType) Calculated() bool {
	switch t {
	case TestTypeComposite, TestTypeSComposite, TestTypeRLookup:
		return true
	}
	return false
}

// Assignment binds a test list to a unit. UnitTestCollection in API terms.
type Assignment struct {
	Url         string `json:"url"`
	Name        string `json:"name"`
	Unit        string `json:"unit"`
	TestsObject string `json:"tests_object"`
}

type Unit struct {
	Url    string `json:"url"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

type Test struct {
	Url       string   `json:"url"`
	Slug      string   `json:"slug"`
	Name      string   `json:"name"`
	Type      TestType `json:"type"`
	Statistic bool     `json:"statistic"`
}

type TestList struct {
	Url   string `json:"url"`
	Name  string `json:"name"`
	Tests []Test `json:"tests"`
}

// UnitTestInfo links a test to a unit. Test instances reference their
// test indirectly through this.
type UnitTestInfo struct {
	Url  string `json:"url"`
	Unit string `json:"unit"`
	Test string `json:"test"`
}

// Session is one performance of an assignment's test list.
// TestListInstance in API terms.
type Session struct {
	Url           string         `json:"url"`
	SiteUrl       string         `json:"site_url"`
	WorkCompleted string         `json:"work_completed"`
	Comment       string         `json:"comment"`
	TestInstances []TestInstance `json:"test_instances"`
}

// TestInstance is one test's recorded result within a session. Which of
// the value fields is meaningful depends on the parent test's type.
type TestInstance struct {
	Url             string   `json:"url"`
	UnitTestInfo    string   `json:"unit_test_info"`
	Skipped         bool     `json:"skipped"`
	Value           *float64 `json:"value"`
	StringValue     string   `json:"string_value"`
	JsonValue       string   `json:"json_value"`
	DateValue       *string  `json:"date_value"`
	DatetimeValue   *string  `json:"datetime_value"`
	UnitLookupValue string   `json:"unit_lookup_value"`
	WorkCompleted   string   `json:"work_completed"`
}

type Attachment struct {
	Url      string `json:"url"`
	Label    string `json:"label"`
	Download string `json:"download"`
}

type SavedReport struct {
	Url          string `json:"url"`
	Title        string `json:"title"`
	RunReportUrl string `json:"run_report_url"`
}

// TestResult pairs a test's slug with its decoded value, preserving the
// order results appeared in the session.
type TestResult struct {
	Slug  string
	Value any
}
