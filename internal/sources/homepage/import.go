package homepage

import "fmt"

// ImportFile loads path and maps it according to kind. An empty kind is
// guessed from the file name.
func ImportFile(path string, kind Kind) (Result, error) {
	loader := NewLoader(path)
	mapper := NewMapper()
	if kind == "" {
		kind = loader.Kind()
	}

	switch kind {
	case KindServices:
		config, err := loader.LoadServices()
		if err != nil {
			return Result{}, err
		}
		return mapper.MapServices(config)
	case KindBookmarks:
		config, err := loader.LoadBookmarks()
		if err != nil {
			return Result{}, err
		}
		return mapper.MapBookmarks(config)
	default:
		return Result{}, fmt.Errorf("unknown homepage file kind %q", kind)
	}
}
