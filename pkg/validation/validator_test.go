package validation

import "testing"

func TestValidateExpireTs(t *testing.T) {
	v := New(1048576, 2592000, 16384)
	now := int64(1_700_000_000)

	testCases := []struct {
		name          string
		expireTs      int64
		expectedError bool
	}{
		{name: "one second in the future", expireTs: now + 1, expectedError: false},
		{name: "at the maximum boundary", expireTs: now + 2592000, expectedError: false},
		{name: "now is rejected", expireTs: now, expectedError: true},
		{name: "in the past is rejected", expireTs: now - 10, expectedError: true},
		{name: "one second past the maximum", expireTs: now + 2592001, expectedError: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := v.ValidateExpireTs(tc.expireTs, now)
			if tc.expectedError && err == nil {
				t.Error("expected an error but got none")
			}
			if !tc.expectedError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if err != nil && err.Kind != KindBadExpiration {
				t.Errorf("expected KindBadExpiration, got %v", err.Kind)
			}
		})
	}
}

func TestValidatePasteSize(t *testing.T) {
	v := New(1048576, 2592000, 16384)

	if err := v.ValidatePasteSize(1048576); err != nil {
		t.Errorf("expected exact-boundary size to be accepted, got %v", err)
	}
	if err := v.ValidatePasteSize(1048577); err == nil {
		t.Error("expected one byte over the boundary to be rejected")
	} else if err.Kind != KindTooLarge {
		t.Errorf("expected KindTooLarge, got %v", err.Kind)
	}
}

func TestValidateChatMessageSize(t *testing.T) {
	v := New(1048576, 2592000, 16384)

	if err := v.ValidateChatMessageSize(16384); err != nil {
		t.Errorf("expected exact-boundary chat size to be accepted, got %v", err)
	}
	if err := v.ValidateChatMessageSize(16385); err == nil {
		t.Error("expected one byte over the chat boundary to be rejected")
	}
}

func TestValidateViewsAllowed(t *testing.T) {
	v := New(1048576, 2592000, 16384)

	if err := v.ValidateViewsAllowed(1); err != nil {
		t.Errorf("expected viewsAllowed=1 to be accepted, got %v", err)
	}
	if err := v.ValidateViewsAllowed(5); err != nil {
		t.Errorf("expected viewsAllowed=5 to be accepted, got %v", err)
	}
	if err := v.ValidateViewsAllowed(0); err != nil {
		t.Errorf("expected viewsAllowed=0 (unset) to be accepted, got %v", err)
	}
	if err := v.ValidateViewsAllowed(-1); err == nil {
		t.Error("expected negative viewsAllowed to be rejected")
	}
}

func TestDecodeBase64Field(t *testing.T) {
	v := New(1048576, 2592000, 16384)

	decoded, err := v.DecodeBase64Field("ct", "aGVsbG8", true)
	if err != nil {
		t.Fatalf("unexpected error decoding valid field: %v", err)
	}
	if string(decoded) != "hello" {
		t.Errorf("expected decoded value 'hello', got %q", decoded)
	}

	if _, err := v.DecodeBase64Field("ct", "", true); err == nil {
		t.Error("expected missing required field to error")
	} else if err.Kind != KindMissingField {
		t.Errorf("expected KindMissingField, got %v", err.Kind)
	}

	if decoded, err := v.DecodeBase64Field("deleteAuth", "", false); err != nil || decoded != nil {
		t.Errorf("expected empty optional field to pass through as nil, got %v %v", decoded, err)
	}

	if _, err := v.DecodeBase64Field("ct", "not base64!!", true); err == nil {
		t.Error("expected malformed base64 to error")
	} else if err.Kind != KindMalformedBody {
		t.Errorf("expected KindMalformedBody, got %v", err.Kind)
	}
}
