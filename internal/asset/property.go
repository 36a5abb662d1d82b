package asset

// PropertyKind tags which payload fields of a Property are meaningful.
type PropertyKind string

const (
	KindObject     PropertyKind = "ObjectProperty"
	KindSoftObject PropertyKind = "SoftObjectProperty"
	KindArray      PropertyKind = "ArrayProperty"
	KindStruct     PropertyKind = "StructProperty"
	KindName       PropertyKind = "NameProperty"
	KindBool       PropertyKind = "BoolProperty"
	KindGuid       PropertyKind = "GuidProperty"
	KindInt        PropertyKind = "IntProperty"
	KindStr        PropertyKind = "StrProperty"
)

// SoftObjectPath is a by-path reference that needs no import.
type SoftObjectPath struct {
	AssetPath Name   `json:"asset_path"`
	SubPath   string `json:"sub_path,omitempty"`
}

// Property is one tagged value in an export's property list. Kind selects the
// payload: Object for KindObject, Soft for KindSoftObject, ArrayType and Values
// for KindArray, StructType and Values for KindStruct, NameValue for KindName,
// Bool, GUID, Int and Str for the scalar kinds.
type Property struct {
	Kind             PropertyKind `json:"kind"`
	Name             Name         `json:"name"`
	Ancestry         []Name       `json:"ancestry,omitempty"`
	PropertyGUID     *GUID        `json:"property_guid,omitempty"`
	DuplicationIndex int32        `json:"duplication_index,omitempty"`

	Object        Index           `json:"object,omitempty"`
	Soft          *SoftObjectPath `json:"soft,omitempty"`
	ArrayType     *Name           `json:"array_type,omitempty"`
	StructType    *Name           `json:"struct_type,omitempty"`
	StructGUID    *GUID           `json:"struct_guid,omitempty"`
	SerializeNone bool            `json:"serialize_none,omitempty"`
	Values        []Property      `json:"values,omitempty"`
	NameValue     *Name           `json:"name_value,omitempty"`
	Bool          bool            `json:"bool,omitempty"`
	GUID          *GUID           `json:"guid,omitempty"`
	Int           int64           `json:"int,omitempty"`
	Str           string          `json:"str,omitempty"`
}

// ZeroGUID returns a pointer to an all-zero GUID, the value the engine writes
// for "has a property guid but it is unset".
func ZeroGUID() *GUID {
	var g GUID
	return &g
}

// ObjectValue builds an ObjectProperty referencing target.
func ObjectValue(name Name, target Index) Property {
	return Property{Kind: KindObject, Name: name, Object: target}
}

// SoftObjectValue builds a SoftObjectProperty.
func SoftObjectValue(name Name, assetPath Name, subPath string) Property {
	return Property{
		Kind: KindSoftObject,
		Name: name,
		Soft: &SoftObjectPath{AssetPath: assetPath, SubPath: subPath},
	}
}

// ArrayValue builds an ArrayProperty whose elements are of elemType.
func ArrayValue(name Name, elemType Name, values ...Property) Property {
	return Property{Kind: KindArray, Name: name, ArrayType: &elemType, Values: values}
}

// StructValue builds a StructProperty of structType.
func StructValue(name Name, structType Name, values ...Property) Property {
	return Property{Kind: KindStruct, Name: name, StructType: &structType, Values: values}
}

// NameValue builds a NameProperty.
func NameValue(name Name, value Name) Property {
	return Property{Kind: KindName, Name: name, NameValue: &value}
}

// BoolValue builds a BoolProperty.
func BoolValue(name Name, value bool) Property {
	return Property{Kind: KindBool, Name: name, Bool: value}
}

// GuidValue builds a GuidProperty.
func GuidValue(name Name, value GUID) Property {
	return Property{Kind: KindGuid, Name: name, GUID: &value}
}

// ElementType returns the declared element type of an array property and
// whether one is declared.
func (p *Property) ElementType() (string, bool) {
	if p.Kind != KindArray || p.ArrayType == nil {
		return "", false
	}
	return p.ArrayType.Value, true
}

// Clone returns a deep copy of p.
func (p Property) Clone() Property {
	out := p
	out.Ancestry = cloneNames(p.Ancestry)
	out.PropertyGUID = cloneGUID(p.PropertyGUID)
	out.StructGUID = cloneGUID(p.StructGUID)
	out.GUID = cloneGUID(p.GUID)
	if p.Soft != nil {
		soft := *p.Soft
		out.Soft = &soft
	}
	if p.ArrayType != nil {
		n := *p.ArrayType
		out.ArrayType = &n
	}
	if p.StructType != nil {
		n := *p.StructType
		out.StructType = &n
	}
	if p.NameValue != nil {
		n := *p.NameValue
		out.NameValue = &n
	}
	out.Values = cloneProperties(p.Values)
	return out
}

// names appends every Name the property (recursively) carries.
func (p *Property) names(dst []Name) []Name {
	dst = append(dst, p.Name)
	dst = append(dst, p.Ancestry...)
	if p.Soft != nil {
		dst = append(dst, p.Soft.AssetPath)
	}
	if p.ArrayType != nil {
		dst = append(dst, *p.ArrayType)
	}
	if p.StructType != nil {
		dst = append(dst, *p.StructType)
	}
	if p.NameValue != nil {
		dst = append(dst, *p.NameValue)
	}
	for i := range p.Values {
		dst = p.Values[i].names(dst)
	}
	return dst
}

// references appends every non-null Index the property (recursively) stores.
func (p *Property) references(dst []Index) []Index {
	if p.Kind == KindObject && !p.Object.IsNull() {
		dst = append(dst, p.Object)
	}
	for i := range p.Values {
		dst = p.Values[i].references(dst)
	}
	return dst
}

func cloneProperties(in []Property) []Property {
	if in == nil {
		return nil
	}
	out := make([]Property, len(in))
	for i := range in {
		out[i] = in[i].Clone()
	}
	return out
}

func cloneNames(in []Name) []Name {
	if in == nil {
		return nil
	}
	return append([]Name(nil), in...)
}

func cloneGUID(g *GUID) *GUID {
	if g == nil {
		return nil
	}
	c := *g
	return &c
}
