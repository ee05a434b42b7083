// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

//go:build linux
// +build linux

package sysfsgpio

import (
	"fmt"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	// MaxEvents is the number of readiness events collected per epoll_wait.
	MaxEvents = 54

	valueEvents = unix.EPOLLPRI | unix.EPOLLERR | unix.EPOLLET
)

type epollPoller struct {
	epfd    int
	wakefd  int
	events  uint32
	handler ReadyHandler
	onError ErrorHandler

	closeOnce sync.Once
	done      chan struct{}
	// error that terminated the wait loop, if any.
	err error
}

// NewEpollPoller creates an epoll based Poller watching for the
// priority events the kernel raises on a sysfs GPIO value file when the
// selected edge occurs.
func NewEpollPoller(handler ReadyHandler, errHandler ErrorHandler) (Poller, error) {
	return newEpollPoller(handler, errHandler, valueEvents)
}

func newEpollPoller(handler ReadyHandler, errHandler ErrorHandler, events uint32) (*epollPoller, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("epoll_create: %w", err)
	}
	wakefd, err := unix.Eventfd(0, unix.EFD_CLOEXEC)
	if err != nil {
		unix.Close(epfd)
		return nil, fmt.Errorf("eventfd: %w", err)
	}
	err = unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, wakefd, &unix.EpollEvent{
		Events: unix.EPOLLIN,
		Fd:     int32(wakefd),
	})
	if err != nil {
		unix.Close(wakefd)
		unix.Close(epfd)
		return nil, fmt.Errorf("epoll_ctl: %w", err)
	}
	p := &epollPoller{
		epfd:    epfd,
		wakefd:  wakefd,
		events:  events,
		handler: handler,
		onError: errHandler,
		done:    make(chan struct{}),
	}
	go p.wait()
	return p, nil
}

func (p *epollPoller) Add(fd int, tag uint32) error {
	ev := unix.EpollEvent{Events: p.events, Fd: int32(fd), Pad: int32(tag)}
	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, fd, &ev); err != nil {
		return fmt.Errorf("epoll_ctl add: %w", err)
	}
	return nil
}

func (p *epollPoller) Remove(fd int) error {
	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, &unix.EpollEvent{}); err != nil {
		return fmt.Errorf("epoll_ctl del: %w", err)
	}
	return nil
}

// Close wakes the wait loop, waits for it to exit, then releases the epoll
// and eventfd descriptors.
// Must not be called from the handler.
func (p *epollPoller) Close() error {
	var err error
	p.closeOnce.Do(func() {
		one := uint64(1)
		_, err = unix.Write(p.wakefd, (*[unsafe.Sizeof(one)]byte)(unsafe.Pointer(&one))[:])
		if err != nil {
			// the wait loop cannot be woken, so is left blocked.
			unix.Close(p.wakefd)
			unix.Close(p.epfd)
			err = fmt.Errorf("eventfd write: %w", err)
			return
		}
		<-p.done
		unix.Close(p.wakefd)
		unix.Close(p.epfd)
		err = p.err
	})
	return err
}

func (p *epollPoller) wait() {
	defer close(p.done)
	var events [MaxEvents]unix.EpollEvent
	for {
		n, err := unix.EpollWait(p.epfd, events[:], -1)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			p.err = fmt.Errorf("epoll_wait: %w", err)
			if p.onError != nil {
				p.onError(p.err)
			}
			return
		}
		for _, ev := range events[:n] {
			if int(ev.Fd) == p.wakefd {
				return
			}
			p.handler(int(ev.Fd), uint32(ev.Pad), ev.Events)
		}
	}
}
