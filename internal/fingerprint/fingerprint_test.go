package fingerprint

import "testing"

func TestHashIsDeterministic(t *testing.T) {
	t.Parallel()

	link := "https://www.saramin.co.kr/zf_user/jobs/relay/view?rec_idx=1000001"
	want := "7d370b02c0280bae06bb2672fc08c82c43a76641c39079caba69367f9482a5cb"

	if got := Hash(link); got != want {
		t.Fatalf("unexpected digest: %q", got)
	}
	if Hash(link) != Hash(link) {
		t.Fatalf("same link must hash to the same fingerprint")
	}
}

func TestHashDistinguishesLinks(t *testing.T) {
	t.Parallel()

	a := Hash("https://example.com/jobs/1")
	b := Hash("https://example.com/jobs/2")
	if a == b {
		t.Fatalf("different links produced the same fingerprint: %q", a)
	}
	if len(a) != HexLength {
		t.Fatalf("expected %d hex chars, got %d", HexLength, len(a))
	}
}

func TestHashIsExactString(t *testing.T) {
	t.Parallel()

	if Hash("https://example.com/jobs/1") == Hash("https://EXAMPLE.com/jobs/1") {
		t.Fatalf("case variants must not collide; no normalization is applied")
	}
	if got := Hash("abc"); got != "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad" {
		t.Fatalf("unexpected digest for known vector: %q", got)
	}
}
