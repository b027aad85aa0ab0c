package apitest

// EmployeeMetadata describes an Employee entity with a salary field hidden
// from self-service users viewing someone else's record.
const EmployeeMetadata = `{
  "Name": "Employee",
  "Label": "Employee",
  "ParentEntityName": "",
  "ChildEntityNames": ["LeaveRequest"],
  "AllowViewSecurityGroups": [1, 2],
  "AllowCreateSecurityGroups": [1],
  "AllowEditSecurityGroups": [1],
  "AllowDeleteSecurityGroups": [1],
  "EssAllowViewSecurityGroups": [],
  "EssAllowCreateSecurityGroups": [],
  "EssAllowEditSecurityGroups": [],
  "EssAllowDeleteSecurityGroups": [],
  "Fields": [
    {"Name": "Id", "Label": "Id", "Type": 1, "TypeName": "integer"},
    {"Name": "FirstName", "Label": "First Name", "Type": 2, "TypeName": "string",
     "AllowViewSecurityGroups": [1, 2], "AllowEditSecurityGroups": [1],
     "EssAllowViewSecurityGroups": [1, 2], "EssAllowEditSecurityGroups": []},
    {"Name": "Email", "Label": "Email Address", "Type": 3, "TypeName": "email",
     "AllowViewSecurityGroups": [1, 2], "AllowEditSecurityGroups": [1],
     "EssAllowViewSecurityGroups": [1], "EssAllowEditSecurityGroups": []},
    {"Name": "Salary", "Label": "Salary", "Type": 4, "TypeName": "numeric",
     "AllowViewSecurityGroups": [1, 2], "AllowEditSecurityGroups": [1],
     "EssAllowViewSecurityGroups": [], "EssAllowEditSecurityGroups": []},
    {"Name": "StartDate", "Label": "Start Date", "Type": 5, "TypeName": "date",
     "AllowViewSecurityGroups": [1, 2], "AllowEditSecurityGroups": [1],
     "EssAllowViewSecurityGroups": [1, 2], "EssAllowEditSecurityGroups": []},
    {"Name": "Gender", "Label": "Gender", "Type": 9, "TypeName": "enum",
     "AllowViewSecurityGroups": [1, 2], "AllowEditSecurityGroups": [1],
     "EssAllowViewSecurityGroups": [1, 2], "EssAllowEditSecurityGroups": [],
     "Options": [{"Value": "M", "Text": "Male"}, {"Value": "F", "Text": "Female"}]},
    {"Name": "CreatedDate", "Label": "Created Date", "Type": 6, "TypeName": "dateTime"}
  ]
}`

// LeaveRequestMetadata describes a child of Employee owned through
// __ParentId.
const LeaveRequestMetadata = `{
  "Name": "LeaveRequest",
  "Label": "Leave Request",
  "ParentEntityName": "Employee",
  "ChildEntityNames": [],
  "AllowViewSecurityGroups": [1],
  "AllowCreateSecurityGroups": [1],
  "AllowEditSecurityGroups": [1],
  "AllowDeleteSecurityGroups": [1],
  "EssAllowViewSecurityGroups": [5],
  "EssAllowCreateSecurityGroups": [5],
  "EssAllowEditSecurityGroups": [],
  "EssAllowDeleteSecurityGroups": [],
  "Fields": [
    {"Name": "Id", "Label": "Id", "Type": 1, "TypeName": "integer"},
    {"Name": "__ParentId", "Label": "Employee", "Type": 1, "TypeName": "integer"},
    {"Name": "Days", "Label": "Days", "Type": 4, "TypeName": "numeric",
     "AllowViewSecurityGroups": [1], "AllowEditSecurityGroups": [1],
     "EssAllowViewSecurityGroups": [5], "EssAllowEditSecurityGroups": [5]},
    {"Name": "Kind", "Label": "Leave Kind", "Type": 9, "TypeName": "enum",
     "AllowViewSecurityGroups": [1], "AllowEditSecurityGroups": [1],
     "EssAllowViewSecurityGroups": [5], "EssAllowEditSecurityGroups": [],
     "Options": [{"Value": 1, "Text": "Annual"}, {"Value": 2, "Text": "Sick"}]}
  ]
}`
