package server

import (
	"encoding/json"
	"fmt"
	"github.com/ValentinKolb/dArray/lib/store"
	"github.com/ValentinKolb/dArray/rpc/common"
)

func NewIStoreServerAdapter() IRPCServerAdapter {
	return &iStoreServerAdapterImpl{}
}

type iStoreServerAdapterImpl struct{}

func (adapter *iStoreServerAdapterImpl) Handle(req *common.Message, store store.IStore) *common.Message {
	// Check for nil store
	if store == nil {
		return common.NewErrorResponse("handler: store is nil")
	}

	// Handle different message types
	switch req.MsgType {
	case common.MsgTKVSet:
		err := store.Set(req.Key, req.Value)
		return common.NewSetResponse(err)
	case common.MsgTKVDelete:
		err := store.Delete(req.Key)
		return common.NewDeleteResponse(err)
	case common.MsgTKVGet:
		val, ok, err := store.Get(req.Key)
		return common.NewGetResponse(val, ok, err)
	case common.MsgTKVHas:
		ok, err := store.Has(req.Key)
		return common.NewHasResponse(ok, err)
	case common.MsgTKVKeys:
		keys, err := store.Keys(req.Key)
		return common.NewKeysResponse(keys, err)
	case common.MsgTKVInfo:
		info, err := store.GetDBInfo()
		if err != nil {
			return common.NewDBInfoResponse(nil, err)
		}
		data, err := json.Marshal(info)
		return common.NewDBInfoResponse(data, err)
	default:
		return common.NewErrorResponse(
			fmt.Sprintf("RPC IStoreAdapter - Unsupported message type: %s", req.MsgType),
		)
	}
}
