/*
Package bytepack implements a compact binary layout for typed values.

Every packed value has a fixed-size region whose size is known from the type
alone, followed by a dynamic region that is appended to as variable-length data
is encountered. Variable-length data is referenced from the fixed region by an
8-byte Pointer (big-endian offset, then big-endian length).

# Layout rules

Integers are big-endian, booleans are a single 0 or 1 byte, times are int64
seconds since the Unix epoch, ids are 16 raw bytes.

Strings and byte slices occupy a pointer in the fixed region; their bytes are
pushed to the dynamic region.

Optional values occupy a pointer. A NULL pointer (offset 0, length 0) means
absent; otherwise the pointer references a freshly reserved fixed region of the
inner type.

Slices and maps occupy a pointer to count*elemSize reserved bytes, where the
elements are laid out contiguously. The element count is length/elemSize, so a
length that is not a multiple of the element size is malformed.

Pairs and structs concatenate the fixed regions of their parts.

# Tagged pointers

Tagged enums use the pointer itself as a discriminant. A pointer with offset 0
is "inline": its length field carries a 4-byte tag and there is no payload.
Otherwise the pointer references [4-byte tag][payload] in the dynamic region.

Offset 0 can never address a dynamic payload because the dynamic region always
follows a non-empty fixed region, so the two forms never collide.
*/
package bytepack
