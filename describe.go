package typroxy

import "maps"

// SetInfo is a serializable snapshot of a DescriptorSet.
type SetInfo struct {
	Contracts []ContractInfo `json:"contracts" yaml:"contracts"`
}

// ContractInfo is a serializable snapshot of a ContractDescriptor.
type ContractInfo struct {
	Name          string          `json:"name" yaml:"name"`
	QualifiedName string          `json:"qualifiedName" yaml:"qualifiedName"`
	RegionKey     string          `json:"regionKey" yaml:"regionKey"`
	Route         string          `json:"route" yaml:"route"`
	Operations    []OperationInfo `json:"operations" yaml:"operations"`
}

// OperationInfo is a serializable snapshot of an OperationDescriptor.
type OperationInfo struct {
	Name                  string            `json:"name" yaml:"name"`
	Declarer              string            `json:"declarer" yaml:"declarer"`
	Verb                  string            `json:"verb" yaml:"verb"`
	ContentType           string            `json:"contentType,omitempty" yaml:"contentType,omitempty"`
	Timeout               string            `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	Headers               map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Template              string            `json:"template,omitempty" yaml:"template,omitempty"`
	TemplateKeys          []string          `json:"templateKeys,omitempty" yaml:"templateKeys,omitempty"`
	TemplateParameterKeys []string          `json:"templateParameterKeys,omitempty" yaml:"templateParameterKeys,omitempty"`
	Parameters            []ParameterInfo   `json:"parameters,omitempty" yaml:"parameters,omitempty"`
}

// ParameterInfo is a serializable snapshot of parameter metadata.
type ParameterInfo struct {
	Name             string `json:"name" yaml:"name"`
	Type             string `json:"type" yaml:"type"`
	SimpleType       bool   `json:"simpleType,omitempty" yaml:"simpleType,omitempty"`
	FormFile         bool   `json:"formFile,omitempty" yaml:"formFile,omitempty"`
	ContainsFormFile bool   `json:"containsFormFile,omitempty" yaml:"containsFormFile,omitempty"`
}

// Describe returns a snapshot of the set.
func (s *DescriptorSet) Describe() SetInfo {
	info := SetInfo{Contracts: make([]ContractInfo, 0, len(s.contracts))}
	for _, c := range s.contracts {
		info.Contracts = append(info.Contracts, c.Describe())
	}
	return info
}

// Describe returns a snapshot of the contract.
func (c *ContractDescriptor) Describe() ContractInfo {
	info := ContractInfo{
		Name:          c.name,
		QualifiedName: c.qualifiedName,
		RegionKey:     c.regionKey,
		Route:         c.route,
		Operations:    make([]OperationInfo, 0, len(c.operations)),
	}
	for _, op := range c.operations {
		info.Operations = append(info.Operations, op.Describe())
	}
	return info
}

// Describe returns a snapshot of the operation.
func (o *OperationDescriptor) Describe() OperationInfo {
	info := OperationInfo{
		Name:                  o.id.Name,
		Declarer:              o.id.Declarer,
		Verb:                  o.verb.String(),
		ContentType:           o.contentType,
		Template:              o.template,
		TemplateKeys:          o.TemplateKeys(),
		TemplateParameterKeys: o.TemplateParameterKeys(),
	}
	if o.hasTimeout {
		info.Timeout = o.timeout.String()
	}
	if len(o.headers) > 0 {
		info.Headers = maps.Clone(o.headers)
	}
	for _, md := range o.params {
		info.Parameters = append(info.Parameters, ParameterInfo{
			Name:             md.PropertyName,
			Type:             md.TypeName(),
			SimpleType:       md.IsSimpleType,
			FormFile:         md.IsFormFile,
			ContainsFormFile: !md.IsFormFile && md.ContainsFormFile(),
		})
	}
	return info
}
