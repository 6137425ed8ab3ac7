package client

import (
	"go.osspkg.com/logx"

	"go.osspkg.com/pollecho/errs"
)

func writeLog(err error, message, local, address string) {
	if err == nil {
		return
	}
	logx.Error(message, "err", err, "code", errs.Code(err), "local", local, "address", address)
}
