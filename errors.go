package canopy

// InputError represents an error caused by arguments a search
// cannot work with.
type InputError string

/*
ErrInvalidInput is returned, wrapped with details, when a dataset is
empty, there are no features to choose from, a size rule yields no
combination or a subset refers to features that do not exist.
*/
const ErrInvalidInput = InputError("invalid input")

func (ie InputError) Error() string {
	return string(ie)
}
