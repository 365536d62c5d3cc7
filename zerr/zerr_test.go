package zerr

import "testing"

func TestRcodeMapping(t *testing.T) {
	cases := []struct {
		code Code
		want uint16
	}{
		{FormatError, RcodeFormErr},
		{NotImplemented, RcodeNotImp},
		{Refused, RcodeRefused},
		{ServerFailure, RcodeServFail},
	}
	for _, c := range cases {
		if got := c.code.Rcode(); got != c.want {
			t.Errorf("%s.Rcode() = %d, want %d", c.code, got, c.want)
		}
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := New(IoError, "connection reset")
	err := Wrap(ServerFailure, "signing failed", cause)
	if err.Unwrap() != cause {
		t.Errorf("Unwrap did not return the wrapped cause")
	}
}
