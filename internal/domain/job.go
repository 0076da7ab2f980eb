package domain

// JobID идентифицирует job внутри namespace.
type JobID struct {
	Namespace string `json:"namespace"`
	Name      string `json:"name"`
}

// String возвращает "namespace.name".
func (j JobID) String() string {
	return j.Namespace + "." + j.Name
}
