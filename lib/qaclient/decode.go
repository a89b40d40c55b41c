package qaclient

import (
	"encoding/json"
	"fmt"
)

// InstanceValue returns the recorded result of a test instance. The
// field carrying the value depends on the test's type; skipped
// instances decode to nil regardless of type. An unrecognized test type
// is an error rather than a silent fallback, since it means the client
// would misread every instance of that test.
func InstanceValue(test Test, instance TestInstance) (any, error) {
	if instance.Skipped {
		return nil, nil
	}

	switch test.Type {
	case TestTypeSimple:
		if test.Statistic {
			var value any
			err := json.Unmarshal([]byte(instance.JsonValue), &value)
			if err != nil {
				return nil, fmt.Errorf("test %q: bad json_value %q: %w", test.Slug, instance.JsonValue, err)
			}
			return value, nil
		}
		return numericValue(instance), nil
	case TestTypeBoolean, TestTypeComposite, TestTypeConstant, TestTypeWraparound:
		return numericValue(instance), nil
	case TestTypeString, TestTypeSComposite, TestTypeMultChoice, TestTypeUpload:
		return instance.StringValue, nil
	case TestTypeDate:
		if instance.DateValue == nil {
			return nil, nil
		}
		return *instance.DateValue, nil
	case TestTypeDatetime:
		if instance.DatetimeValue == nil {
			return nil, nil
		}
		return *instance.DatetimeValue, nil
	case TestTypeULookup, TestTypeRLookup:
		if instance.UnitLookupValue == "" {
			return nil, nil
		}
		return objectIdFromUrl(instance.UnitLookupValue), nil
	}

	return nil, fmt.Errorf("test %q: unknown test type %q", test.Slug, test.Type)
}

func numericValue(instance TestInstance) any {
	if instance.Value == nil {
		return nil
	}
	return *instance.Value
}
