package restyutil

import (
	"strconv"
	"sync/atomic"

	"github.com/go-resty/resty/v2"
)

// InstrumentOutput receives one formatted HTTP exchange per request.
type InstrumentOutput interface {
	Write(id string, contents string)
}

// DumpClient writes every request/response pair the client handles to
// the given output, numbered in dispatch order. Meant for debugging
// sessions against a live service.
func DumpClient(client *resty.Client, output InstrumentOutput) {
	if output == nil {
		return
	}
	var counter uint64
	client.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		id := strconv.FormatUint(atomic.AddUint64(&counter, 1), 10)
		output.Write(id, formatHttpMessage(res))
		return nil
	})
}
