package hal

import "strconv"

// reportTransferError logs the n-th failed panel transfer. Only powers of
// two are written so a dead bus does not flood the log.
func reportTransferError(l Logger, n uint64, err error) {
	if l == nil || n == 0 || n&(n-1) != 0 {
		return
	}
	l.WriteLineString("panel: transfer failed (" + strconv.FormatUint(n, 10) + " total): " + err.Error())
}
