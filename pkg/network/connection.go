package network

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"
)

// CheckPort 检查指定主机和端口是否可连接
func CheckPort(host string, port int, timeout time.Duration) error {
	address := net.JoinHostPort(host, strconv.Itoa(port))

	// 尝试建立TCP连接
	conn, err := net.DialTimeout("tcp", address, timeout)
	if err != nil {
		return fmt.Errorf("无法连接 %s: %w", address, err)
	}
	return conn.Close()
}

// CheckURL 检查URL所在主机是否可连接，未指定端口时按协议取默认端口
func CheckURL(rawURL string, timeout time.Duration) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("无效的地址 %q: %w", rawURL, err)
	}
	if u.Hostname() == "" {
		return fmt.Errorf("无效的地址 %q: 缺少主机名", rawURL)
	}

	port := 443
	if u.Scheme == "http" {
		port = 80
	}
	if p := u.Port(); p != "" {
		if port, err = strconv.Atoi(p); err != nil {
			return fmt.Errorf("无效的端口 %q: %w", p, err)
		}
	}
	return CheckPort(u.Hostname(), port, timeout)
}
