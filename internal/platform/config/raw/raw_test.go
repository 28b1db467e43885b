package raw

import "testing"

func TestConf(t *testing.T) {
	t.Setenv("LOG_LEVEL", " warn ")
	t.Setenv("LOG_CALLER", "YES")
	t.Setenv("LOG_JSON", "off")
	t.Setenv("LOG_SAMPLE_EVERY", "10")
	t.Setenv("LOG_BAD_INT", "-3")

	c := New().Prefix("LOG_")
	if got := c.Get("LEVEL", "debug"); got != "warn" {
		t.Fatalf("Get = %q", got)
	}
	if got := c.Get("FORMAT", "console"); got != "console" {
		t.Fatalf("Get default = %q", got)
	}
	if !c.GetBool("CALLER", false) || c.GetBool("JSON", true) || !c.GetBool("UNSET", true) {
		t.Fatal("GetBool mismatch")
	}
	if c.GetInt("SAMPLE_EVERY", 0) != 10 || c.GetInt("BAD_INT", 1) != 1 || c.GetInt("UNSET", 7) != 7 {
		t.Fatal("GetInt mismatch")
	}
}
