package adapter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/GoogleCloudPlatform/go-dicom-parser/dicom"
	"github.com/yasushi-saito/go-dicom/dicomtag"
)

// TagInfo describes one DICOM attribute.
type TagInfo struct {
	Keyword string
	Tag     dicom.DataElementTag
	VR      *dicom.VR
}

// keywordAliases maps legacy keywords, as still written by older scripts, to
// the current dictionary keyword.
var keywordAliases = map[string]string{
	"PatientsName":      "PatientName",
	"PatientsBirthDate": "PatientBirthDate",
	"PatientsSex":       "PatientSex",
	"PatientsAge":       "PatientAge",
	"PatientsSize":      "PatientSize",
	"PatientsWeight":    "PatientWeight",
}

// vrByName maps the VR codes of the standard dictionary onto the codec's VRs.
var vrByName = map[string]*dicom.VR{}

func init() {
	for _, vr := range []*dicom.VR{
		dicom.CSVR, dicom.SHVR, dicom.LOVR, dicom.STVR, dicom.LTVR, dicom.ASVR,
		dicom.PNVR, dicom.AEVR, dicom.DAVR, dicom.TMVR, dicom.DTVR, dicom.ISVR,
		dicom.DSVR, dicom.SSVR, dicom.USVR, dicom.SLVR, dicom.ULVR, dicom.FLVR,
		dicom.FDVR, dicom.OBVR, dicom.ODVR, dicom.OLVR, dicom.OWVR, dicom.OFVR,
		dicom.UCVR, dicom.UNVR, dicom.URVR, dicom.UTVR, dicom.ATVR, dicom.UIVR,
		dicom.SQVR,
	} {
		vrByName[vr.Name] = vr
	}
}

// LookupTag resolves a keyword, a legacy alias, "(gggg,eeee)" or "ggggeeee"
// against the standard data dictionary.
func LookupTag(name string) (TagInfo, error) {
	keyword := strings.TrimSpace(name)
	if canonical, ok := keywordAliases[keyword]; ok {
		keyword = canonical
	}

	if entry, err := dicomtag.FindByName(keyword); err == nil {
		return fromEntry(keyword, entry), nil
	}

	if keyword != name {
		if entry, err := dicomtag.FindByName(name); err == nil {
			return fromEntry(name, entry), nil
		}
	}

	tag, ok := parseTagLiteral(name)
	if !ok {
		return TagInfo{}, fmt.Errorf("%w: %q", ErrUnknownTag, name)
	}

	if entry, err := dicomtag.Find(dicomtag.Tag{Group: tag.GroupNumber(), Element: tag.ElementNumber()}); err == nil {
		return fromEntry(entry.Name, entry), nil
	}

	return TagInfo{Keyword: FormatTag(tag), Tag: tag, VR: tag.DictionaryVR()}, nil
}

func fromEntry(keyword string, entry dicomtag.TagInfo) TagInfo {
	tag := dicom.DataElementTag(uint32(entry.Tag.Group)<<16 | uint32(entry.Tag.Element))

	// Entries with a choice of VR ("US or SS") defer to the codec.
	vr, ok := vrByName[entry.VR]
	if !ok {
		vr = tag.DictionaryVR()
	}

	return TagInfo{Keyword: keyword, Tag: tag, VR: vr}
}

// KeywordFor returns the keyword of tag, or its "(GGGG,EEEE)" form for
// private and unknown tags.
func KeywordFor(tag dicom.DataElementTag) string {
	entry, err := dicomtag.Find(dicomtag.Tag{Group: tag.GroupNumber(), Element: tag.ElementNumber()})
	if err != nil || entry.Name == "" {
		return FormatTag(tag)
	}

	return entry.Name
}

// FormatTag renders tag as "(GGGG,EEEE)".
func FormatTag(tag dicom.DataElementTag) string {
	return fmt.Sprintf("(%04X,%04X)", tag.GroupNumber(), tag.ElementNumber())
}

func parseTagLiteral(name string) (dicom.DataElementTag, bool) {
	s := strings.TrimSpace(name)

	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		parts := strings.Split(s[1:len(s)-1], ",")
		if len(parts) != 2 || len(parts[0]) != 4 || len(parts[1]) != 4 {
			return 0, false
		}

		s = parts[0] + parts[1]
	}

	if len(s) != 8 {
		return 0, false
	}

	n, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, false
	}

	return dicom.DataElementTag(n), true
}
