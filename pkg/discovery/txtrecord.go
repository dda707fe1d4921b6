package discovery

import (
	"fmt"
	"sort"
	"strings"
)

// TXTRecordMap is a map of TXT record key-value pairs.
type TXTRecordMap map[string]string

// EncodeInstrumentTXT creates the TXT records for an instrument.
func EncodeInstrumentTXT(info *InstrumentInfo) (TXTRecordMap, error) {
	txt := TXTRecordMap{
		TXTKeyVersion:      TXTVersion,
		TXTKeyManufacturer: info.Manufacturer,
		TXTKeyModel:        info.Model,
	}
	if info.SerialNumber != "" {
		txt[TXTKeySerialNumber] = info.SerialNumber
	}
	if info.FirmwareVersion != "" {
		txt[TXTKeyFirmwareVersion] = info.FirmwareVersion
	}
	for k, v := range txt {
		if len(k)+1+len(v) > MaxTXTValueLen {
			return nil, fmt.Errorf("%w: %s", ErrTXTValueTooLong, k)
		}
	}
	return txt, nil
}

// DecodeInstrumentTXT parses instrument TXT records. Keys are matched
// case-insensitively, as DNS-SD requires.
func DecodeInstrumentTXT(txt TXTRecordMap) (*InstrumentInfo, error) {
	folded := make(map[string]string, len(txt))
	for k, v := range txt {
		folded[strings.ToLower(k)] = v
	}
	get := func(key string) (string, bool) {
		v, ok := folded[strings.ToLower(key)]
		return v, ok
	}

	info := &InstrumentInfo{}
	var ok bool
	if info.Manufacturer, ok = get(TXTKeyManufacturer); !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeyManufacturer)
	}
	if info.Model, ok = get(TXTKeyModel); !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeyModel)
	}
	info.SerialNumber, _ = get(TXTKeySerialNumber)
	info.FirmwareVersion, _ = get(TXTKeyFirmwareVersion)
	return info, nil
}

// TXTRecordsToStrings converts a TXTRecordMap to "key=value" strings,
// sorted by key.
func TXTRecordsToStrings(txt TXTRecordMap) []string {
	result := make([]string, 0, len(txt))
	for k, v := range txt {
		result = append(result, fmt.Sprintf("%s=%s", k, v))
	}
	sort.Strings(result)
	return result
}

// StringsToTXTRecords parses a slice of "key=value" strings into a TXTRecordMap.
func StringsToTXTRecords(strs []string) TXTRecordMap {
	txt := make(TXTRecordMap)
	for _, s := range strs {
		parts := strings.SplitN(s, "=", 2)
		if len(parts) == 2 {
			txt[parts[0]] = parts[1]
		} else if len(parts) == 1 && parts[0] != "" {
			// Key without value (boolean flag)
			txt[parts[0]] = ""
		}
	}
	return txt
}

// ValidateInstanceName checks if an instance name is valid for mDNS.
func ValidateInstanceName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInstanceNameTooLong)
	}
	if len(name) > MaxInstanceNameLen {
		return ErrInstanceNameTooLong
	}
	return nil
}
