package forecast

import (
	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"
	"github.com/pkg/errors"
)

// Dataset is an opened forecast file.
type Dataset interface {
	// Variables lists the variable names.
	Variables() []string
	// Values returns the values of a variable, a scalar or a nested slice of numbers.
	Values(name string) (any, error)
	Close() error
}

// Opener opens the forecast file at path.
type Opener func(path string) (Dataset, error)

type netcdfDataset struct {
	group api.Group
}

// Open reads a NetCDF forecast file.
func Open(path string) (Dataset, error) {
	group, err := netcdf.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "can't open forecast file")
	}

	return &netcdfDataset{group: group}, nil
}

func (d *netcdfDataset) Variables() []string {
	return d.group.ListVariables()
}

func (d *netcdfDataset) Values(name string) (any, error) {
	v, err := d.group.GetVariable(name)
	if err != nil {
		return nil, errors.Wrap(err, "can't read "+name)
	}

	return v.Values, nil
}

func (d *netcdfDataset) Close() error {
	d.group.Close()

	return nil
}
