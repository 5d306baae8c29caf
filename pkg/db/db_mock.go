package db

import (
	"github.com/stretchr/testify/mock"
	bolt "go.etcd.io/bbolt"

	"github.com/aquasecurity/updateinfo-db/pkg/store"
	"github.com/aquasecurity/updateinfo-db/pkg/types"
)

type MockOperation struct {
	mock.Mock
}

type PutStoreArgs struct {
	Store         *store.Store
	StoreAnything bool
}

type PutStoreReturns struct {
	Err error
}

type PutStoreExpectation struct {
	Args    PutStoreArgs
	Returns PutStoreReturns
}

func (_m *MockOperation) ApplyPutStoreExpectation(e PutStoreExpectation) {
	var args []any
	if e.Args.StoreAnything {
		args = append(args, mock.Anything)
	} else {
		args = append(args, e.Args.Store)
	}
	_m.On("PutStore", args...).Return(e.Returns.Err)
}

func (_m *MockOperation) BatchUpdate(fn func(tx *bolt.Tx) error) error {
	ret := _m.Called(fn)
	return ret.Error(0)
}

func (_m *MockOperation) SetMetadata(metadata Metadata) error {
	ret := _m.Called(metadata)
	return ret.Error(0)
}

func (_m *MockOperation) PutStore(st *store.Store) error {
	ret := _m.Called(st)
	return ret.Error(0)
}

func (_m *MockOperation) PutDataSource(tx *bolt.Tx, sourceID string, source types.DataSource) error {
	ret := _m.Called(tx, sourceID, source)
	return ret.Error(0)
}

func (_m *MockOperation) GetAdvisory(id string) (*types.Advisory, error) {
	ret := _m.Called(id)
	adv, _ := ret.Get(0).(*types.Advisory)
	return adv, ret.Error(1)
}

func (_m *MockOperation) GetAdvisories(pkgName string) ([]*types.Advisory, error) {
	ret := _m.Called(pkgName)
	advs, _ := ret.Get(0).([]*types.Advisory)
	return advs, ret.Error(1)
}

func (_m *MockOperation) GetAdvisoryByNVR(name, version, release string) (*types.Advisory, error) {
	ret := _m.Called(name, version, release)
	adv, _ := ret.Get(0).(*types.Advisory)
	return adv, ret.Error(1)
}

func (_m *MockOperation) GetAdvisoryOrigin(advisoryID string) (string, error) {
	ret := _m.Called(advisoryID)
	return ret.String(0), ret.Error(1)
}

func (_m *MockOperation) ForEachAdvisory(fn func(adv *types.Advisory) error) error {
	ret := _m.Called(fn)
	return ret.Error(0)
}

func (_m *MockOperation) GetDataSource(sourceID string) (types.DataSource, error) {
	ret := _m.Called(sourceID)
	return ret.Get(0).(types.DataSource), ret.Error(1)
}
