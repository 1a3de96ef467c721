package util

import (
	"net"
	"strconv"
	"testing"
)

func TestFindAvailablePort_SkipsBusyPort(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("cannot listen: %v", err)
	}
	defer ln.Close()

	busy := ln.Addr().(*net.TCPAddr).Port
	got := FindAvailablePort(busy)
	if got == busy {
		// 仅绑定 127.0.0.1 时部分平台仍允许监听通配地址
		l, err := net.Listen("tcp", net.JoinHostPort("", strconv.Itoa(busy)))
		if err == nil {
			_ = l.Close()
			return
		}
		t.Fatalf("want a port other than busy %d", busy)
	}
}

func TestFormatPercent(t *testing.T) {
	if got := FormatPercent(80); got != "80.00%" {
		t.Fatalf("got %q", got)
	}
	if got := FormatPercent(66.666); got != "66.67%" {
		t.Fatalf("got %q", got)
	}
}
