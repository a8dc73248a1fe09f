package contenttypes

import "testing"

func TestDecodeEPC(t *testing.T) {
	t.Run("exact_window", func(t *testing.T) {
		key, ok := DecodeEPC("AABBCCDD00112233")
		if !ok {
			t.Fatalf("decode failed")
		}
		if key.ContentTypeID != 0xAABBCCDD || key.ContentValue != 0x00112233 {
			t.Fatalf("got %+v", key)
		}
	})

	t.Run("longer_input_uses_last_16", func(t *testing.T) {
		key, ok := DecodeEPC("FFFF0000AABBCCDD00112233")
		if !ok {
			t.Fatalf("decode failed")
		}
		if key.ContentTypeID != 0xAABBCCDD || key.ContentValue != 0x00112233 {
			t.Fatalf("prefix must be ignored, got %+v", key)
		}
	})

	t.Run("deterministic", func(t *testing.T) {
		first, ok := DecodeEPC("0000002a0000007b")
		if !ok || first.ContentTypeID != 42 || first.ContentValue != 123 {
			t.Fatalf("got %+v ok=%v", first, ok)
		}
		for i := 0; i < 10; i++ {
			again, ok := DecodeEPC("0000002a0000007b")
			if !ok || again != first {
				t.Fatalf("repeat decode diverged: %+v vs %+v", again, first)
			}
		}
	})

	t.Run("non_hex_chunk_fails", func(t *testing.T) {
		if _, ok := DecodeEPC("ZZBBCCDD00112233"); ok {
			t.Fatalf("bad type chunk must fail")
		}
		if _, ok := DecodeEPC("AABBCCDD0011223G"); ok {
			t.Fatalf("bad value chunk must fail")
		}
	})

	t.Run("short_input_fails", func(t *testing.T) {
		for _, epc := range []string{"", "AABB", "AABBCCDD0011223"} {
			if _, ok := DecodeEPC(epc); ok {
				t.Fatalf("short input %q must fail", epc)
			}
		}
	})
}
