package packdb

import "sync"

// Index row keys are short; a transaction borrows buffers for them and
// returns them when it ends, because Bolt requires keys passed to Put to stay
// valid until then.
const keyBufSize = 64

var keyBytesPool = &sync.Pool{
	New: func() any {
		return make([]byte, 0, keyBufSize)
	},
}

var arrayOfBytesPool = &sync.Pool{
	New: func() any {
		return make([][]byte, 0, 64)
	},
}
