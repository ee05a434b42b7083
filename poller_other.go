// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

//go:build !linux
// +build !linux

package sysfsgpio

// NewEpollPoller always fails on hosts without epoll.
func NewEpollPoller(handler ReadyHandler, errHandler ErrorHandler) (Poller, error) {
	return nil, ErrPlatformUnsupported
}
