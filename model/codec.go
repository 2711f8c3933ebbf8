package model

import "github.com/ethereum/go-ethereum/common/hexutil"

// hexBytes marshals a byte slice the way §6 requires: lowercase, 0x-prefixed,
// no length prefix. hexutil.Bytes already implements exactly that encoding.
type hexBytes = hexutil.Bytes
