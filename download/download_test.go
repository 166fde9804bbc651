/*
	k1-fwuploader
	Copyright (c) 2024 CryoZ.  All right reserved.

	This library is free software; you can redistribute it and/or
	modify it under the terms of the GNU Lesser General Public
	License as published by the Free Software Foundation; either
	version 2.1 of the License, or (at your option) any later version.

	This library is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
	Lesser General Public License for more details.

	You should have received a copy of the GNU Lesser General Public
	License along with this library; if not, write to the Free Software
	Foundation, Inc., 51 Franklin St, Fifth Floor, Boston, MA  02110-1301  USA
*/

package download

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsURL(t *testing.T) {
	require.True(t, IsURL("https://example.com/firmware.bin"))
	require.True(t, IsURL("http://example.com/firmware.bin"))
	require.False(t, IsURL("/tmp/firmware.bin"))
	require.False(t, IsURL("firmware.bin"))
	require.False(t, IsURL("C:\\firmware.bin"))
	require.False(t, IsURL("ftp://example.com/firmware.bin"))
}
