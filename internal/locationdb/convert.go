package locationdb

import (
	"openpeer/internal/domain"
	"openpeer/internal/message/info"
)

func databaseInfo(rec domain.DatabaseRecord) info.DatabaseInfo {
	return info.DatabaseInfo{
		Disposition:   rec.Disposition,
		ID:            rec.DatabaseID,
		MetaData:      rec.MetaData,
		Created:       rec.Created,
		Expires:       rec.Expires,
		Version:       rec.Version,
		UpdateVersion: rec.UpdateVersion,
	}
}

func databaseRecord(loc domain.Location, in info.DatabaseInfo) domain.DatabaseRecord {
	return domain.DatabaseRecord{
		Location:      loc,
		DatabaseID:    in.ID,
		MetaData:      in.MetaData,
		Created:       in.Created,
		Expires:       in.Expires,
		Version:       in.Version,
		Disposition:   in.Disposition,
		UpdateVersion: in.UpdateVersion,
	}
}

func entryInfo(rec domain.EntryRecord, withData bool) info.EntryInfo {
	out := info.EntryInfo{
		Disposition: rec.Disposition,
		ID:          rec.EntryID,
		Version:     rec.UpdateVersion,
		MetaData:    rec.MetaData,
		DataLength:  uint64(rec.DataLength),
		Created:     rec.Created,
		Updated:     rec.Updated,
	}
	if withData {
		out.Data = rec.Data
	}
	return out
}

func entryRecord(dbID string, in info.EntryInfo) domain.EntryRecord {
	return domain.EntryRecord{
		DatabaseID:    dbID,
		EntryID:       in.ID,
		Data:          in.Data,
		DataLength:    int(in.DataLength),
		MetaData:      in.MetaData,
		Disposition:   in.Disposition,
		UpdateVersion: in.Version,
		Created:       in.Created,
		Updated:       in.Updated,
	}
}

func databaseInfos(recs []domain.DatabaseRecord) []info.DatabaseInfo {
	out := make([]info.DatabaseInfo, 0, len(recs))
	for _, r := range recs {
		out = append(out, databaseInfo(r))
	}
	return out
}

func entryInfos(recs []domain.EntryRecord, withData bool) []info.EntryInfo {
	out := make([]info.EntryInfo, 0, len(recs))
	for _, r := range recs {
		out = append(out, entryInfo(r, withData))
	}
	return out
}
