package sheets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/oprema/internal/model"
)

func TestNormalizeEmployeeID(t *testing.T) {
	assert.Equal(t, "000007", NormalizeEmployeeID("7"))
	assert.Equal(t, "000123", NormalizeEmployeeID(" 123 "))
	assert.Equal(t, "123456", NormalizeEmployeeID("123456"))
	assert.Equal(t, "1234567", NormalizeEmployeeID("1234567"))
	assert.Equal(t, "A12", NormalizeEmployeeID("A12"))
	assert.Equal(t, "EXT-9", NormalizeEmployeeID("  EXT-9 "))
	assert.Equal(t, "", NormalizeEmployeeID("   "))
}

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		employeeID  string
		location    string
		wantStatus  model.Status
		wantCentral bool
	}{
		{"lost beats everything", "Lost - reported", "000001", "HQ", model.StatusLost, false},
		{"lost case insensitive", "LOST", "", "", model.StatusLost, false},
		{"damaged", "Damaged screen", "000001", "", model.StatusBroken, false},
		{"broken", "broken", "", "", model.StatusBroken, false},
		{"write-off", "Write-off 2024", "", "HQ", model.StatusBroken, false},
		{"pending", "Pending vendor", "000001", "", model.StatusRepair, false},
		{"repair", "In repair", "", "", model.StatusRepair, false},
		{"employee held", "", "000001", "", model.StatusAssigned, false},
		{"employee beats location", "Active", "000001", "HQ", model.StatusAssigned, false},
		{"central location", "", "", "Meeting Room 2", model.StatusAssigned, true},
		{"active implies assigned", "Active", "", "", model.StatusAssigned, false},
		{"stock suppresses active", "Active - Stock", "", "", model.StatusAvailable, false},
		{"blank", "", "", "", model.StatusAvailable, false},
	}

	for _, tt := range tests {
		status, central := DeriveStatus(tt.text, tt.employeeID, tt.location)
		assert.Equal(t, tt.wantStatus, status, tt.name)
		assert.Equal(t, tt.wantCentral, central, tt.name)
	}
}

func TestParseEmployees(t *testing.T) {
	data := "Code,Name,Nickname,Department,Position,Email,Status\n" +
		"7,Somchai Jaidee,Chai,IT,Engineer,somchai@example.co.th,\n" +
		"A12,\"Suda, Mali\",Da,HR,Manager,suda@example.co.th,Resigned\n" +
		"short,row,only\n" +
		"  ,Nobody,,,,\n"

	employees := ParseEmployees(data)
	require.Len(t, employees, 2)

	assert.Equal(t, "000007", employees[0].ID)
	assert.Equal(t, "Somchai Jaidee", employees[0].Name)
	assert.Equal(t, "Active", employees[0].Status)

	assert.Equal(t, "A12", employees[1].ID)
	assert.Equal(t, "Suda, Mali", employees[1].Name)
	assert.True(t, employees[1].Resigned())
}

func TestParseLaptops(t *testing.T) {
	data := "Brand,Model,Serial,Employee,Location,Purchased,Warranty,Status\n" +
		"Lenovo,ThinkPad T14,PF1ABC,42,,2023-01-01,3y,Active\n" +
		"Dell,\"Latitude 5440, 16GB\",DL999,,Server Room,2023-01-01,3y,\n" +
		"Apple,MacBook Air,C02XYZ,,,2022-06-01,1y,Active - Stock\n" +
		"HP,EliteBook,HP123,000001,HQ,2021-01-01,3y,Lost\n" +
		"Acer,Swift\n"

	laptops := ParseLaptops(data)
	require.Len(t, laptops, 4)

	assert.Equal(t, "000042", laptops[0].EmployeeID)
	assert.Equal(t, model.StatusAssigned, laptops[0].Status)
	assert.False(t, laptops[0].IsCentral)
	assert.Equal(t, model.CategoryLaptop, laptops[0].Category)
	assert.False(t, laptops[0].IsRental)

	assert.Equal(t, "Latitude 5440, 16GB", laptops[1].Name)
	assert.Equal(t, model.StatusAssigned, laptops[1].Status)
	assert.True(t, laptops[1].IsCentral)
	assert.Equal(t, "Server Room", laptops[1].Location)

	assert.Equal(t, model.StatusAvailable, laptops[2].Status)
	assert.Equal(t, model.StatusLost, laptops[3].Status)
}

func TestParseLaptopsShortRowWithoutStatusColumn(t *testing.T) {
	data := "Brand,Model,Serial,Employee\nLenovo,X1,SN1,\n"

	laptops := ParseLaptops(data)
	require.Len(t, laptops, 1)
	assert.Equal(t, "", laptops[0].StatusText)
	assert.Equal(t, model.StatusAvailable, laptops[0].Status)
}

func TestParseMobiles(t *testing.T) {
	data := "Brand,Model,IMEI,Phone,Employee,Location,Status\n" +
		"Samsung,Galaxy A54,3569990001,081-234-5678,15,,Active\n" +
		"Apple,iPhone 13,3569990002,,,Front Desk,\n" +
		"Oppo,A78,3569990003,,,,Broken\n"

	mobiles := ParseMobiles(data)
	require.Len(t, mobiles, 3)

	assert.Equal(t, model.CategoryMobile, mobiles[0].Category)
	assert.Equal(t, "081-234-5678", mobiles[0].PhoneNumber)
	assert.Equal(t, "000015", mobiles[0].EmployeeID)
	assert.Equal(t, model.StatusAssigned, mobiles[0].Status)

	assert.True(t, mobiles[1].IsCentral)
	assert.Equal(t, model.StatusBroken, mobiles[2].Status)
}

func TestReadRowsToleratesQuotesAndBOM(t *testing.T) {
	data := "\ufeffa,b,c\n" +
		"  \" spaced \",\"quoted, comma\",plain\n" +
		"\n"

	rows := readRows(data)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"spaced", "quoted, comma", "plain"}, rows[0])
}
