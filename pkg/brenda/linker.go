package brenda

import (
	"fmt"
)

// link replaces every reference ID list in the record with the references
// it names, then drops the ID lists, the local IDs and the block's
// reference table.
func (r *Record) link() error {
	resolve := func(ids []string, owner string) ([]*Reference, error) {
		refs := make([]*Reference, 0, len(ids))
		for _, id := range ids {
			ref, ok := r.refs[id]
			if !ok {
				return nil, &ParseError{
					Kind:   ErrStructural,
					Code:   r.Code,
					Tag:    TagReference.Code(),
					Detail: fmt.Sprintf("reference <%s> cited by %s is never defined", id, owner),
				}
			}
			refs = append(refs, ref)
		}
		return refs, nil
	}

	// Walk enzymes in ID order so a missing reference is always reported
	// against the same enzyme.
	enzymeIDs := make([]string, 0, len(r.Enzymes))
	for id := range r.Enzymes {
		enzymeIDs = append(enzymeIDs, id)
	}
	sortIDs(enzymeIDs)

	var err error
	for _, id := range enzymeIDs {
		enzyme := r.Enzymes[id]
		owner := "enzyme #" + id + "#"
		if enzyme.References, err = resolve(enzyme.refIDs, owner); err != nil {
			return err
		}
		for _, tissue := range enzyme.Tissues {
			if tissue.References, err = resolve(tissue.refIDs, "tissue "+tissue.Name+" of "+owner); err != nil {
				return err
			}
		}
		for _, loc := range enzyme.SubcellularLocalizations {
			if loc.References, err = resolve(loc.refIDs, "localization "+loc.Name+" of "+owner); err != nil {
				return err
			}
		}
	}
	for i, datum := range r.KcatValues {
		if datum.References, err = resolve(datum.refIDs, fmt.Sprintf("turnover number %d", i+1)); err != nil {
			return err
		}
	}
	for i, datum := range r.KmValues {
		if datum.References, err = resolve(datum.refIDs, fmt.Sprintf("Km value %d", i+1)); err != nil {
			return err
		}
	}

	r.strip()
	return nil
}

// strip removes the bookkeeping that only linking needed.
func (r *Record) strip() {
	for _, enzyme := range r.Enzymes {
		enzyme.id = ""
		enzyme.refIDs = nil
		for _, tissue := range enzyme.Tissues {
			tissue.refIDs = nil
		}
		for _, loc := range enzyme.SubcellularLocalizations {
			loc.refIDs = nil
		}
	}
	for _, datum := range r.KcatValues {
		datum.refIDs = nil
	}
	for _, datum := range r.KmValues {
		datum.refIDs = nil
	}
	for _, ref := range r.refs {
		ref.id = ""
	}
	r.refs = nil
}

// linked reports whether the record has been through link.
func (r *Record) linked() bool {
	return r.refs == nil
}
